// Package capture coordinates the user-visible capture/preview modes.
// A Session is a two-state machine: LIVE shows the active stream, FROZEN
// shows one captured frame while extraction runs. One overloaded command
// means "capture" in LIVE and "resume" in FROZEN; the session, not the
// caller, decides which action fires.
package capture

import (
	"errors"

	"github.com/metersnap/metersnap/pkg/enhance"
	"github.com/metersnap/metersnap/pkg/extract"
)

// Mode is the session's user-visible state.
type Mode string

const (
	// ModeLive shows the active stream in the viewport.
	ModeLive Mode = "live"
	// ModeFrozen shows a static captured frame pending extraction.
	ModeFrozen Mode = "frozen"
)

// Sentinel errors for session operations.
var (
	// ErrNotStarted is returned for commands before Start has run.
	ErrNotStarted = errors.New("capture: session not started")

	// ErrNoCamera is returned when startup finds no capture device.
	ErrNoCamera = errors.New("capture: no camera available")

	// ErrNoFrame is returned when the live stream yields no frame to freeze.
	ErrNoFrame = errors.New("capture: no frame available")
)

// Enhancer is the pipeline dependency. *enhance.Enhancer satisfies it;
// tests substitute a double so they run without OpenCV.
type Enhancer interface {
	Enhance(frame enhance.Frame) (enhance.Enhanced, error)
}

// Frozen is the frame a FROZEN session displays, correlated to its
// extraction by CaptureID.
type Frozen struct {
	CaptureID string
	Frame     enhance.Frame
	Enhanced  enhance.Enhanced
}

// Snapshot is a copy of the session's observable state.
type Snapshot struct {
	Mode      Mode            `json:"mode"`
	DeviceID  string          `json:"device_id"`
	CaptureID string          `json:"capture_id,omitempty"`
	Result    *extract.Result `json:"result,omitempty"`
	LastError string          `json:"last_error,omitempty"`
}
