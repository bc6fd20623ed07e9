// Package stream owns live capture sessions. A Manager holds at most one
// ActiveStream at a time and guarantees the previous session's hardware
// tracks are fully released before a new acquisition is attempted.
package stream

import (
	"sync"

	"github.com/metersnap/metersnap/pkg/device"
	"github.com/metersnap/metersnap/pkg/enhance"
)

// Track is one open hardware capture track.
type Track interface {
	// Read grabs the current frame from the track.
	Read() (enhance.Frame, error)

	// Release frees the underlying hardware resource. Idempotent.
	Release() error
}

// Selection names the camera to start: either a concrete device ID or a
// symbolic facing preference. Exactly one is authoritative; a non-empty
// DeviceID wins, falling back to Facing if the ID is stale.
type Selection struct {
	DeviceID string
	Facing   device.Facing
}

// ActiveStream represents exclusive ownership of one live capture session.
// Created only by Manager.Start; stopped by Manager.Stop or by being
// superseded.
type ActiveStream struct {
	deviceID string // actual device, as reported after acquisition
	track    Track

	mu      sync.Mutex
	stopped bool
}

// DeviceID returns the actual device the host acquired, which may differ
// from the requested one.
func (s *ActiveStream) DeviceID() string {
	return s.deviceID
}

// Grab snapshots the current frame into an immutable capture frame.
func (s *ActiveStream) Grab() (enhance.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return enhance.Frame{}, ErrStreamStopped
	}
	return s.track.Read()
}

// Stop releases the stream's tracks. Idempotent: stopping an already
// stopped stream is a no-op, not an error.
func (s *ActiveStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	return s.track.Release()
}

// Stopped reports whether the stream has been stopped.
func (s *ActiveStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
