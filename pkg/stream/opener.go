package stream

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"gocv.io/x/gocv"

	"github.com/metersnap/metersnap/pkg/enhance"
)

// Opener acquires a capture track for a device. Acquisition is video-only;
// audio is never requested. Returns the track and the actual device ID the
// host opened, which may differ from the requested one.
type Opener interface {
	Open(ctx context.Context, deviceID string) (Track, string, error)
}

// GoCVOpener opens V4L2 devices through OpenCV's VideoCapture.
type GoCVOpener struct{}

// Open implements Opener. Failures are classified into the package's
// recoverable sentinel errors so callers can offer the right retry.
func (GoCVOpener) Open(ctx context.Context, deviceID string) (Track, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	// Probe the node directly first: VideoCapture collapses open
	// failures into one generic error, but permission and busy states
	// need to surface differently.
	if err := probeDevice(deviceID); err != nil {
		return nil, "", err
	}

	vc, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, "", &AcquireError{DeviceID: deviceID, Err: fmt.Errorf("%w: %v", ErrConstraintUnsatisfiable, err)}
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, "", &AcquireError{DeviceID: deviceID, Err: ErrConstraintUnsatisfiable}
	}

	mat := gocv.NewMat()
	return &gocvTrack{vc: vc, mat: &mat}, deviceID, nil
}

// probeDevice distinguishes permission and busy failures on the raw node.
func probeDevice(deviceID string) error {
	f, err := os.OpenFile(deviceID, os.O_RDWR, 0)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return &AcquireError{DeviceID: deviceID, Err: ErrPermissionDenied}
		case errors.Is(err, syscall.EBUSY):
			return &AcquireError{DeviceID: deviceID, Err: ErrDeviceBusy}
		case errors.Is(err, fs.ErrNotExist):
			return &AcquireError{DeviceID: deviceID, Err: fmt.Errorf("%w: no such device", ErrConstraintUnsatisfiable)}
		default:
			return &AcquireError{DeviceID: deviceID, Err: fmt.Errorf("%w: %v", ErrConstraintUnsatisfiable, err)}
		}
	}
	f.Close()
	return nil
}

// gocvTrack adapts a VideoCapture to the Track interface.
// A reusable matrix backs Read to avoid per-frame allocation.
type gocvTrack struct {
	vc       *gocv.VideoCapture
	mat      *gocv.Mat
	released bool
}

func (t *gocvTrack) Read() (enhance.Frame, error) {
	if t.released {
		return enhance.Frame{}, ErrStreamStopped
	}
	if ok := t.vc.Read(t.mat); !ok {
		return enhance.Frame{}, fmt.Errorf("stream: cannot read frame")
	}
	return enhance.FrameFromMat(t.mat)
}

func (t *gocvTrack) Release() error {
	if t.released {
		return nil
	}
	t.released = true
	t.mat.Close()
	return t.vc.Close()
}
