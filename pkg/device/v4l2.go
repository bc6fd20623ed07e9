package device

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocv.io/x/gocv"

	"github.com/metersnap/metersnap/internal/log"
)

// V4L2Catalog enumerates Video4Linux capture devices under /dev.
// Labels come from the kernel's sysfs name attribute and may be empty
// until the device has been opened once (some drivers only register
// their card name after first open).
type V4L2Catalog struct {
	// DevDir and SysDir exist so tests can point the catalog at a
	// fake tree. Zero values mean the real system paths.
	DevDir string
	SysDir string

	// Primed records that a throwaway capture session was already used
	// to populate labels. One priming per catalog is enough.
	primed bool
}

// NewV4L2Catalog returns a catalog over the host's V4L2 devices.
func NewV4L2Catalog() *V4L2Catalog {
	return &V4L2Catalog{DevDir: "/dev", SysDir: "/sys/class/video4linux"}
}

// ListVideoDevices returns a snapshot of the host's capture devices.
// If no device reports a label, a throwaway capture session is opened and
// immediately released to make labels available, then enumeration runs
// again. Permission problems degrade to a label-less snapshot.
func (c *V4L2Catalog) ListVideoDevices(ctx context.Context) ([]VideoDevice, error) {
	devices := c.scan()

	if len(devices) > 0 && allLabelsEmpty(devices) && !c.primed {
		c.primed = true
		c.prime(ctx, devices[0].ID)
		devices = c.scan()
	}

	return devices, nil
}

// scan walks the device directory and builds a snapshot.
func (c *V4L2Catalog) scan() []VideoDevice {
	matches, err := filepath.Glob(filepath.Join(c.DevDir, "video*"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)

	var devices []VideoDevice
	for _, path := range matches {
		node := filepath.Base(path)
		if !strings.HasPrefix(node, "video") {
			continue
		}
		devices = append(devices, VideoDevice{
			ID:      path,
			Label:   c.readLabel(node),
			GroupID: c.readGroup(node),
		})
	}
	return devices
}

// readLabel returns the driver-reported card name, or "" if unavailable.
func (c *V4L2Catalog) readLabel(node string) string {
	data, err := os.ReadFile(filepath.Join(c.SysDir, node, "name"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readGroup derives a physical-unit identifier from the sysfs device link.
// Multi-function cameras expose several /dev/video nodes under one link.
func (c *V4L2Catalog) readGroup(node string) string {
	target, err := os.Readlink(filepath.Join(c.SysDir, node, "device"))
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

// prime opens and immediately releases a capture session so the host
// populates device labels. Failure is fine; the selector tolerates
// empty labels.
func (c *V4L2Catalog) prime(ctx context.Context, id string) {
	if ctx.Err() != nil {
		return
	}
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		log.Debug("catalog: label priming failed", "device", id, "err", err)
		return
	}
	if err := vc.Close(); err != nil {
		log.Debug("catalog: priming session close failed", "device", id, "err", err)
	}
}

func allLabelsEmpty(devices []VideoDevice) bool {
	for _, d := range devices {
		if d.Label != "" {
			return false
		}
	}
	return true
}
