package stream

import (
	"errors"
	"fmt"
)

// Sentinel errors for stream acquisition. All of these are recoverable:
// the caller surfaces them with a retry affordance, never crashes.
var (
	// ErrPermissionDenied is returned when camera access is not granted.
	ErrPermissionDenied = errors.New("stream: camera permission denied")

	// ErrDeviceBusy is returned when the device has another open session.
	ErrDeviceBusy = errors.New("stream: device busy")

	// ErrConstraintUnsatisfiable is returned when the host cannot satisfy
	// the requested device or facing constraint.
	ErrConstraintUnsatisfiable = errors.New("stream: constraint unsatisfiable")

	// ErrSuperseded is returned to a Start whose acquisition was overtaken
	// by a newer Start; its stream has already been stopped.
	ErrSuperseded = errors.New("stream: start superseded")

	// ErrNoDevice is returned when a selection resolves to no device.
	ErrNoDevice = errors.New("stream: no capture device available")

	// ErrStreamStopped is returned when reading from a stopped stream.
	ErrStreamStopped = errors.New("stream: stream stopped")
)

// AcquireError wraps an acquisition failure with the device it targeted.
type AcquireError struct {
	DeviceID string
	Err      error
}

// Error implements the error interface.
func (e *AcquireError) Error() string {
	return fmt.Sprintf("stream [%s]: %v", e.DeviceID, e.Err)
}

// Unwrap returns the underlying error.
func (e *AcquireError) Unwrap() error {
	return e.Err
}
