package documents

import "errors"

var (
	// ErrNotFound indicates the referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a validation failure before any mutation.
	ErrInvalidInput = errors.New("invalid input")
)
