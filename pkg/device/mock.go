package device

import "context"

// StaticCatalog is a fixed in-memory catalog for tests and for hosts
// without V4L2. Each call returns a fresh copy of the snapshot.
type StaticCatalog struct {
	Devices []VideoDevice

	// Calls counts enumerations, for test assertions.
	Calls int
}

// ListVideoDevices implements Catalog.
func (c *StaticCatalog) ListVideoDevices(ctx context.Context) ([]VideoDevice, error) {
	c.Calls++
	snapshot := make([]VideoDevice, len(c.Devices))
	copy(snapshot, c.Devices)
	return snapshot, nil
}
