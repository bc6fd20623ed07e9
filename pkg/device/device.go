// Package device provides video-input device discovery and the camera
// selection heuristic used to pick a default (rear) lens.
package device

import "context"

// VideoDevice describes one video-input device as reported by the host.
// Label may be empty until the host has granted camera access.
type VideoDevice struct {
	// ID is the opaque, host-assigned device identifier.
	// Unique within a single catalog snapshot.
	ID string `json:"id"`

	// Label is the human-readable device name. Opaque, locale-dependent,
	// possibly empty.
	Label string `json:"label"`

	// GroupID groups devices that belong to the same physical unit.
	GroupID string `json:"group_id"`
}

// Facing is a symbolic camera-orientation preference used when no
// concrete device identifier is known or desired.
type Facing int

const (
	// FacingNone means no facing preference.
	FacingNone Facing = iota
	// FacingEnvironment prefers the rear (world-facing) lens.
	FacingEnvironment
	// FacingUser prefers the front (selfie) lens.
	FacingUser
)

func (f Facing) String() string {
	switch f {
	case FacingEnvironment:
		return "environment"
	case FacingUser:
		return "user"
	default:
		return "none"
	}
}

// Catalog enumerates available video-input devices.
type Catalog interface {
	// ListVideoDevices returns a fresh snapshot of available devices.
	// Enumeration order is host-defined and not stable across calls.
	// Permission problems degrade to an empty or label-less snapshot,
	// never an error.
	ListVideoDevices(ctx context.Context) ([]VideoDevice, error)
}
