// Package enhance implements the deterministic image-enhancement pipeline
// that prepares a captured meter frame for vision extraction: luminance
// reduction, contrast-limited adaptive histogram equalization, optional
// unsharp filtering, area-interpolated resize and JPEG encoding.
package enhance

// Config holds the enhancement pipeline parameters.
// Profiles exist so deployments pick one named configuration instead of
// scattering width/quality literals across call sites.
type Config struct {
	// TargetWidth is the output width in pixels. Height follows the
	// source aspect ratio, rounded to the nearest integer.
	TargetWidth int `json:"target_width" yaml:"target_width"`

	// JPEGQuality is the encode quality 1-100. Bounds payload size for
	// transmission while keeping digit edges legible.
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`

	// Sharpen enables the 3x3 unsharp stage after contrast enhancement.
	Sharpen bool `json:"sharpen" yaml:"sharpen"`

	// KeepColor retains chrominance: the frame is converted to YCrCb and
	// only the luminance channel is equalized. When false the output is
	// single-channel grayscale.
	KeepColor bool `json:"keep_color" yaml:"keep_color"`

	// ClipLimit is the CLAHE contrast amplification bound.
	ClipLimit float64 `json:"clip_limit" yaml:"clip_limit"`

	// TileGrid is the CLAHE tile count per axis (TileGrid x TileGrid).
	TileGrid int `json:"tile_grid" yaml:"tile_grid"`
}

// Profile names for the known deployment configurations.
const (
	ProfileCompact  = "compact"
	ProfileBalanced = "balanced"
	ProfileDetail   = "detail"
)

// DefaultConfig returns the balanced deployment profile.
func DefaultConfig() Config {
	return Config{
		TargetWidth: 720,
		JPEGQuality: 80,
		Sharpen:     true,
		KeepColor:   false,
		ClipLimit:   2.0,
		TileGrid:    8,
	}
}

// CompactConfig returns the low-bandwidth profile (512px, quality 60).
func CompactConfig() Config {
	cfg := DefaultConfig()
	cfg.TargetWidth = 512
	cfg.JPEGQuality = 60
	return cfg
}

// DetailConfig returns the high-detail profile (1280px, quality 90).
// Use when serial-number plates photograph small in the frame.
func DetailConfig() Config {
	cfg := DefaultConfig()
	cfg.TargetWidth = 1280
	cfg.JPEGQuality = 90
	return cfg
}

// Profiles returns all named profile configurations.
func Profiles() map[string]Config {
	return map[string]Config{
		ProfileCompact:  CompactConfig(),
		ProfileBalanced: DefaultConfig(),
		ProfileDetail:   DetailConfig(),
	}
}

// GetProfile returns a profile config by name, or nil if not found.
func GetProfile(name string) *Config {
	profiles := Profiles()
	if cfg, ok := profiles[name]; ok {
		return &cfg
	}
	return nil
}

// Validate checks that the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.TargetWidth < 64 || c.TargetWidth > 4096 {
		errors = append(errors, "target_width must be between 64 and 4096")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errors = append(errors, "jpeg_quality must be between 1 and 100")
	}
	if c.ClipLimit <= 0 || c.ClipLimit > 40 {
		errors = append(errors, "clip_limit must be between 0 and 40")
	}
	if c.TileGrid < 1 || c.TileGrid > 64 {
		errors = append(errors, "tile_grid must be between 1 and 64")
	}

	return errors
}
