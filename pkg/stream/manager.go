package stream

import (
	"context"
	"sync"

	"github.com/metersnap/metersnap/internal/log"
	"github.com/metersnap/metersnap/pkg/device"
)

// Manager owns the single live capture session. Start tears down any
// prior session to full track release before acquiring the next one, so
// hosts that allow one open session per camera never see a conflict.
type Manager struct {
	catalog device.Catalog
	opener  Opener

	mu     sync.Mutex
	active *ActiveStream
	gen    uint64
}

// NewManager creates a stream manager over a device catalog and opener.
func NewManager(catalog device.Catalog, opener Opener) *Manager {
	return &Manager{catalog: catalog, opener: opener}
}

// Start acquires a stream for the selection and installs it as the sole
// ActiveStream. Any existing stream is stopped first. If a newer Start
// arrives while this one's acquisition is in flight, the newer request
// wins: this one's stream is stopped and ErrSuperseded returned.
func (m *Manager) Start(ctx context.Context, sel Selection) (*ActiveStream, error) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	prev := m.active
	m.active = nil
	m.mu.Unlock()

	// Previous tracks must be fully released before the new acquisition
	// is issued; a half-open device reports busy.
	if prev != nil {
		if err := prev.Stop(); err != nil {
			log.Warn("stream: releasing previous session failed", "device", prev.DeviceID(), "err", err)
		}
	}

	deviceID, err := m.resolve(ctx, sel)
	if err != nil {
		return nil, err
	}

	track, actualID, err := m.opener.Open(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	s := &ActiveStream{deviceID: actualID, track: track}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		// A newer Start superseded this acquisition; its product must
		// not survive as a second live session.
		if err := s.Stop(); err != nil {
			log.Warn("stream: releasing superseded session failed", "device", actualID, "err", err)
		}
		return nil, ErrSuperseded
	}
	m.active = s
	m.mu.Unlock()

	log.Info("stream: started", "requested", deviceID, "actual", actualID)
	return s, nil
}

// Stop releases the active stream, if any. Idempotent.
func (m *Manager) Stop() error {
	m.mu.Lock()
	m.gen++
	s := m.active
	m.active = nil
	m.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Stop()
}

// Active returns the current stream, or nil when stopped.
func (m *Manager) Active() *ActiveStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// CurrentDeviceID returns the actual device ID of the active stream,
// or "" when no stream is live.
func (m *Manager) CurrentDeviceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.deviceID
}

// resolve turns a selection into a concrete device ID against the latest
// catalog snapshot. A stale concrete ID falls back to the facing hint.
func (m *Manager) resolve(ctx context.Context, sel Selection) (string, error) {
	catalog, err := m.catalog.ListVideoDevices(ctx)
	if err != nil {
		return "", err
	}

	if sel.DeviceID != "" {
		for _, d := range catalog {
			if d.ID == sel.DeviceID {
				return sel.DeviceID, nil
			}
		}
		if len(catalog) == 0 {
			// Enumeration came back empty; the host may still honor
			// the concrete ID.
			return sel.DeviceID, nil
		}
		log.Warn("stream: requested device not in catalog, falling back to facing",
			"requested", sel.DeviceID, "facing", sel.Facing.String())
	}

	var chosen *device.VideoDevice
	switch sel.Facing {
	case device.FacingUser:
		for i := range catalog {
			if device.IsFront(catalog[i].Label) {
				chosen = &catalog[i]
				break
			}
		}
		if chosen == nil {
			chosen = device.SelectDefault(catalog)
		}
	default:
		chosen = device.SelectDefault(catalog)
	}

	if chosen == nil {
		return "", ErrNoDevice
	}
	return chosen.ID, nil
}
