// Package config provides configuration helpers for metersnap commands.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default service configuration.
const (
	DefaultPort    = "8090"
	DefaultDBPath  = "metersnap.db"
	DefaultProfile = "balanced"
)

// Service holds the runtime configuration for the capture service.
type Service struct {
	// Port is the HTTP listen port for the handheld UI surface.
	Port string `yaml:"port"`

	// VisionEndpoint is the URL of the external vision-extraction call.
	VisionEndpoint string `yaml:"vision_endpoint"`

	// DBPath is the SQLite file for persisted readings.
	DBPath string `yaml:"db_path"`

	// Profile selects the enhancement deployment profile
	// ("compact", "balanced", "detail").
	Profile string `yaml:"profile"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// LoadDotenv loads a .env file if one exists. Missing files are fine;
// the environment always wins over file contents.
func LoadDotenv() {
	_ = godotenv.Load()
}

// FromEnv builds a Service config from environment variables,
// falling back to defaults for anything unset.
func FromEnv() Service {
	return Service{
		Port:           envOr("METERSNAP_PORT", DefaultPort),
		VisionEndpoint: os.Getenv("VISION_ENDPOINT"),
		DBPath:         envOr("METERSNAP_DB", DefaultDBPath),
		Profile:        envOr("METERSNAP_PROFILE", DefaultProfile),
		LogLevel:       envOr("LOG_LEVEL", "info"),
	}
}

// Load builds a Service config from the environment, then applies
// overrides from the YAML file at path if it exists.
func Load(path string) (Service, error) {
	cfg := FromEnv()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// VisionEndpointRequired returns the vision endpoint or exits with usage help.
func VisionEndpointRequired(cfg Service) string {
	if cfg.VisionEndpoint == "" {
		fmt.Fprintln(os.Stderr, "Error: VISION_ENDPOINT environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: VISION_ENDPOINT=https://example.com/extract go run ./cmd/metersnap")
		os.Exit(1)
	}
	return cfg.VisionEndpoint
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
