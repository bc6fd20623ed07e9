package enhance

import (
	"errors"
	"math"
	"testing"
)

// syntheticFrame builds a BGR gradient frame so CLAHE and the sharpen
// kernel have real structure to work on.
func syntheticFrame(w, h int) Frame {
	pixels := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			pixels[i] = byte(x % 256)
			pixels[i+1] = byte(y % 256)
			pixels[i+2] = byte((x + y) % 256)
		}
	}
	return Frame{Width: w, Height: h, Pixels: pixels}
}

func TestEnhance_OutputDimensions(t *testing.T) {
	tests := []struct {
		name        string
		width       int
		height      int
		targetWidth int
	}{
		{name: "vga to compact", width: 640, height: 480, targetWidth: 512},
		{name: "vga to balanced", width: 640, height: 480, targetWidth: 720},
		{name: "1080p to detail", width: 1920, height: 1080, targetWidth: 1280},
		{name: "portrait frame", width: 480, height: 640, targetWidth: 512},
		{name: "odd dimensions", width: 333, height: 217, targetWidth: 720},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TargetWidth = tc.targetWidth
			e, err := New(cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			out, err := e.Enhance(syntheticFrame(tc.width, tc.height))
			if err != nil {
				t.Fatalf("Enhance: %v", err)
			}

			if out.Width != tc.targetWidth {
				t.Errorf("Width: got %d, want %d", out.Width, tc.targetWidth)
			}

			wantH := float64(tc.height) * float64(tc.targetWidth) / float64(tc.width)
			if math.Abs(float64(out.Height)-wantH) > 1 {
				t.Errorf("Height: got %d, want %.1f within 1px", out.Height, wantH)
			}

			if len(out.Data) == 0 {
				t.Error("Data: empty JPEG payload")
			}
		})
	}
}

func TestEnhance_KeepColor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeepColor = true
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := e.Enhance(syntheticFrame(640, 480))
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if out.Width != cfg.TargetWidth {
		t.Errorf("Width: got %d, want %d", out.Width, cfg.TargetWidth)
	}
	if len(out.Data) == 0 {
		t.Error("Data: empty JPEG payload")
	}
}

func TestEnhance_SharpenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sharpen = false
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.Enhance(syntheticFrame(320, 240)); err != nil {
		t.Fatalf("Enhance: %v", err)
	}
}

func TestEnhance_InvalidFrame(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name  string
		frame Frame
	}{
		{name: "zero value", frame: Frame{}},
		{name: "zero width", frame: Frame{Width: 0, Height: 480, Pixels: make([]byte, 10)}},
		{name: "zero height", frame: Frame{Width: 640, Height: 0, Pixels: make([]byte, 10)}},
		{name: "negative width", frame: Frame{Width: -1, Height: 480, Pixels: make([]byte, 10)}},
		{name: "nil pixels", frame: Frame{Width: 640, Height: 480}},
		{name: "short buffer", frame: Frame{Width: 640, Height: 480, Pixels: make([]byte, 100)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Enhance(tc.frame)
			if !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("Enhance: got %v, want ErrInvalidFrame", err)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	bad := DefaultConfig()
	bad.TargetWidth = 0

	if _, err := New(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New: got %v, want ErrInvalidConfig", err)
	}
}

func TestOutputSize(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		target  int
		expectW int
		expectH int
	}{
		{name: "vga to 512", w: 640, h: 480, target: 512, expectW: 512, expectH: 384},
		{name: "1080p to 720", w: 1920, h: 1080, target: 720, expectW: 720, expectH: 405},
		{name: "rounding up", w: 1000, h: 999, target: 512, expectW: 512, expectH: 511},
		{name: "extreme aspect floors to 1", w: 10000, h: 1, target: 512, expectW: 512, expectH: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, h := outputSize(tc.w, tc.h, tc.target)
			if w != tc.expectW || h != tc.expectH {
				t.Errorf("outputSize: got %dx%d, want %dx%d", w, h, tc.expectW, tc.expectH)
			}
		})
	}
}

func TestGetProfile(t *testing.T) {
	for _, name := range []string{ProfileCompact, ProfileBalanced, ProfileDetail} {
		cfg := GetProfile(name)
		if cfg == nil {
			t.Fatalf("GetProfile(%q) returned nil", name)
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("profile %q invalid: %v", name, errs)
		}
	}

	if GetProfile("nope") != nil {
		t.Error("GetProfile: expected nil for unknown profile")
	}
}

func TestProfileWidths(t *testing.T) {
	widths := map[string]int{
		ProfileCompact:  512,
		ProfileBalanced: 720,
		ProfileDetail:   1280,
	}
	for name, want := range widths {
		if got := GetProfile(name).TargetWidth; got != want {
			t.Errorf("profile %q width: got %d, want %d", name, got, want)
		}
	}
}
