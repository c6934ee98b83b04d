// api/errors/folder_errors.go
package errors

import "errors"

var (
	ErrFolderNotFound    = errors.New("folder not found")
	ErrInvalidFolderData = errors.New("invalid folder data")

	ErrAccountNotFound = errors.New("account not found")
	ErrGroupNotFound   = errors.New("group not found")

	ErrInvalidPermissionData = errors.New("invalid permission data")
)
