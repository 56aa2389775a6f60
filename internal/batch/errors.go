package batch

import "errors"

// Common errors returned by batch operations.
var (
	// ErrInvalidInput indicates a malformed request, such as creating
	// a batch with no references.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the batch does not exist.
	ErrNotFound = errors.New("batch not found")

	// ErrConflict indicates a validation run is already in flight for
	// the batch.
	ErrConflict = errors.New("validation already running")

	// ErrStaleToken indicates a validation token that has been
	// superseded or was never issued.
	ErrStaleToken = errors.New("stale validation token")
)
