package enhance

import (
	"fmt"

	"gocv.io/x/gocv"
)

// PreviewQuality is the JPEG quality for live viewport frames. Preview
// frames are disposable, so this trades fidelity for frame rate.
const PreviewQuality = 70

// EncodePreview serializes a raw frame to JPEG without enhancement, for
// the live viewport feed. The extraction path uses Enhance instead.
func EncodePreview(frame Frame) ([]byte, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFrame, frame.Width, frame.Height)
	}
	if len(frame.Pixels) != frame.Width*frame.Height*3 {
		return nil, fmt.Errorf("%w: pixel buffer is %d bytes, want %d",
			ErrInvalidFrame, len(frame.Pixels), frame.Width*frame.Height*3)
	}

	arena := newArena()
	defer arena.release()

	src, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	arena.track(src)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, src,
		[]int{gocv.IMWriteJpegQuality, PreviewQuality})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}
