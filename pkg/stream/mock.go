package stream

import (
	"context"
	"sync"

	"github.com/metersnap/metersnap/pkg/enhance"
)

// MockTrack is a Track double that counts releases.
type MockTrack struct {
	DeviceID string
	Frame    enhance.Frame
	ReadErr  error

	mu       sync.Mutex
	released int
}

// Read implements Track.
func (t *MockTrack) Read() (enhance.Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released > 0 {
		return enhance.Frame{}, ErrStreamStopped
	}
	if t.ReadErr != nil {
		return enhance.Frame{}, t.ReadErr
	}
	return t.Frame, nil
}

// Release implements Track.
func (t *MockTrack) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.released++
	return nil
}

// Released reports how many times Release ran.
func (t *MockTrack) Released() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

// MockOpener is an Opener double that records every track it hands out,
// so tests can assert zero leaks.
type MockOpener struct {
	// Err fails every Open with this error.
	Err error

	// ActualID, when set, is reported instead of the requested ID
	// (hosts may silently substitute devices).
	ActualID string

	// Frame is handed to every track, as the frame its Read returns.
	Frame enhance.Frame

	// OnOpen, when set, runs before each acquisition completes. Tests
	// use it to interleave a superseding Start.
	OnOpen func(deviceID string)

	mu     sync.Mutex
	tracks []*MockTrack
}

// Open implements Opener.
func (o *MockOpener) Open(ctx context.Context, deviceID string) (Track, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if o.OnOpen != nil {
		o.OnOpen(deviceID)
	}
	if o.Err != nil {
		return nil, "", &AcquireError{DeviceID: deviceID, Err: o.Err}
	}

	actual := deviceID
	if o.ActualID != "" {
		actual = o.ActualID
	}

	t := &MockTrack{DeviceID: actual, Frame: o.Frame}
	o.mu.Lock()
	o.tracks = append(o.tracks, t)
	o.mu.Unlock()
	return t, actual, nil
}

// OpenCount returns how many tracks were handed out.
func (o *MockOpener) OpenCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tracks)
}

// LiveTracks returns how many handed-out tracks are not yet released.
func (o *MockOpener) LiveTracks() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	live := 0
	for _, t := range o.tracks {
		if t.Released() == 0 {
			live++
		}
	}
	return live
}

// Track returns the nth handed-out track.
func (o *MockOpener) Track(n int) *MockTrack {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tracks[n]
}
