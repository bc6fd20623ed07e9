package enhance

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Frame is an immutable raster snapshot taken from a capture stream.
// Pixels are 8-bit BGR, row-major, Width*Height*3 bytes. The pipeline
// never mutates a Frame; it produces a new raster.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// Empty reports whether the frame violates the pipeline's input contract.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pixels) == 0
}

// Enhanced is the pipeline output, ready for transmission.
// Data is a JPEG payload; ownership transfers to the caller.
type Enhanced struct {
	Width  int
	Height int
	Data   []byte
}

// FrameFromMat copies a BGR matrix into an immutable Frame.
// The caller keeps ownership of the Mat.
func FrameFromMat(m *gocv.Mat) (Frame, error) {
	if m == nil || m.Empty() {
		return Frame{}, fmt.Errorf("%w: empty matrix", ErrInvalidFrame)
	}
	if m.Channels() != 3 || m.Type() != gocv.MatTypeCV8UC3 {
		return Frame{}, fmt.Errorf("%w: expected 8-bit BGR, got type %d", ErrInvalidFrame, m.Type())
	}

	data, err := m.ToBytes()
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	return Frame{
		Width:  m.Cols(),
		Height: m.Rows(),
		Pixels: data,
	}, nil
}
