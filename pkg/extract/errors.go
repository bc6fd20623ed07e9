package extract

import (
	"errors"
	"fmt"
)

// Sentinel errors for the extraction boundary.
var (
	// ErrNoEndpoint is returned when no vision endpoint is configured.
	ErrNoEndpoint = errors.New("extract: vision endpoint required")

	// ErrEmptyImage is returned for a zero-length image payload.
	ErrEmptyImage = errors.New("extract: empty image payload")

	// ErrExtractionFailed is returned when the boundary reports ok=false.
	ErrExtractionFailed = errors.New("extract: extraction failed")
)

// APIError represents an error response from the vision endpoint.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error body, truncated.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("extract: API error %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited returns true if this is a rate limit error (HTTP 429).
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}
