package source

import (
	"errors"
	"fmt"
)

// Common errors returned by source adapters.
var (
	// ErrNotFound indicates the source has no record of the work.
	// Adapters return (nil, nil) from Lookup for this case; the
	// sentinel exists for internal decode paths.
	ErrNotFound = errors.New("work not found")

	// ErrUnavailable indicates the source could not be reached.
	ErrUnavailable = errors.New("source unavailable")

	// ErrRateLimited indicates the source rejected the request for
	// exceeding its rate limit.
	ErrRateLimited = errors.New("source rate limit exceeded")

	// ErrInvalidResponse indicates the source answered with a payload
	// the adapter could not decode.
	ErrInvalidResponse = errors.New("invalid response from source")
)

// APIError carries the HTTP status of a failed source request.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a missing work.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
