// api/errors/sample_errors.go
package errors

import "errors"

var (
	ErrSampleNotFound    = errors.New("sample not found")
	ErrInvalidSampleData = errors.New("invalid sample data")

	ErrStorageNotFound    = errors.New("storage not found")
	ErrInvalidStorageData = errors.New("invalid storage data")
)
