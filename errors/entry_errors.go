// api/errors/entry_errors.go
package errors

import "errors"

var (
	ErrEntryNotFound    = errors.New("entry not found")
	ErrEntryConflict    = errors.New("entry conflict")
	ErrInvalidEntryData = errors.New("invalid entry data")
)
