package batch

import "errors"

// Configuration errors, raised synchronously before any store access.
// Callers can test them with errors.Is.
var (
	ErrNoCollection    = errors.New("no collection selected")
	ErrEmptyPatch      = errors.New("mutation payload cannot be empty")
	ErrNoDocuments     = errors.New("no documents provided")
	ErrInvalidPageSize = errors.New("page size must be positive")
)

// UnknownDocID is recorded when a write failure does not expose the
// document it belonged to
const UnknownDocID = "unknown"

// IsConfigError reports whether err is a pre-flight configuration error
// (as opposed to a query error from the read path)
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNoCollection) ||
		errors.Is(err, ErrEmptyPatch) ||
		errors.Is(err, ErrNoDocuments) ||
		errors.Is(err, ErrInvalidPageSize)
}
