package enhance

import "errors"

// Sentinel errors for pipeline contract violations.
var (
	// ErrInvalidFrame is returned for an empty or zero-dimension input.
	// Seeing it indicates a defect in the caller's state handling, not a
	// condition to retry.
	ErrInvalidFrame = errors.New("enhance: invalid frame")

	// ErrInvalidConfig is returned when the pipeline config fails validation.
	ErrInvalidConfig = errors.New("enhance: invalid config")

	// ErrEncodeFailed is returned when JPEG serialization fails.
	ErrEncodeFailed = errors.New("enhance: encode failed")
)
