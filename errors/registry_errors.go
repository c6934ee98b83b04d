// api/errors/registry_errors.go
package errors

import "errors"

var (
	ErrDatabaseOperation = errors.New("database operation failed")
	ErrInternalServer    = errors.New("internal server error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidPagination = errors.New("invalid pagination parameters")

	// ErrPermissionDenied is returned when the acting account lacks the
	// READ or WRITE level an operation requires. It is never retried and
	// carries no detail about the target.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTargetNotFound is returned by write-capability checks and grant
	// operations against a target that does not exist. Read checks on a
	// missing target deny instead, so probing reveals nothing.
	ErrTargetNotFound = errors.New("target not found")
)
