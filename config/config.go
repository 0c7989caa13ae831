// Package config loads conversion profiles: the target composition and the
// policies applied while converting.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teranos/camio"
	"github.com/teranos/camio/trip"
)

// VersionPolicy decides what happens with files newer than the supported
// CamIO version.
type VersionPolicy string

const (
	VersionReject VersionPolicy = "reject"
	VersionAccept VersionPolicy = "accept"
	VersionPrompt VersionPolicy = "prompt" // ask when interactive, reject otherwise
)

// Config represents a conversion profile
type Config struct {
	FrameRate     float64       `yaml:"frame_rate"`
	Duration      float64       `yaml:"duration"` // seconds, 0 converts the whole take
	Width         float64       `yaml:"width"`
	Height        float64       `yaml:"height"`
	NativeAspect  float64       `yaml:"native_aspect"`
	RotationMode  string        `yaml:"rotation_mode"` // auto, matrix, direct
	VersionPolicy VersionPolicy `yaml:"version_policy"`
	MaxVersion    int           `yaml:"max_version"`
	MaxWarnings   int           `yaml:"max_warnings"` // 0 keeps every warning
	CameraName    string        `yaml:"camera_name"`
}

// Default returns the profile used when no file is given.
func Default() Config {
	return Config{
		FrameRate:     30,
		Width:         1920,
		Height:        1080,
		NativeAspect:  camio.DefaultNativeAspect,
		RotationMode:  camio.RotationAuto.String(),
		VersionPolicy: VersionPrompt,
		MaxVersion:    camio.MaxSupportedVersion,
		MaxWarnings:   trip.DefaultPolicy().MaxStumbles,
		CameraName:    "HLAE CamIO Camera",
	}
}

// Load reads a YAML profile. Keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Duration < 0 || math.IsNaN(c.Duration) {
		return fmt.Errorf("duration must be >= 0")
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if _, err := camio.ParseRotationMode(c.RotationMode); err != nil {
		return err
	}
	switch c.VersionPolicy {
	case VersionReject, VersionAccept, VersionPrompt:
	default:
		return fmt.Errorf("version_policy must be reject, accept or prompt, got %q", c.VersionPolicy)
	}
	if c.MaxVersion < 0 {
		return fmt.Errorf("max_version must be >= 0")
	}
	if c.MaxWarnings < 0 {
		return fmt.Errorf("max_warnings must be >= 0")
	}
	return nil
}

// Params returns the composition parameters.
func (c Config) Params() camio.Params {
	duration := c.Duration
	if duration == 0 {
		duration = math.Inf(1)
	}
	return camio.Params{
		FrameRate:    c.FrameRate,
		Duration:     duration,
		FrameWidth:   c.Width,
		FrameHeight:  c.Height,
		NativeAspect: c.NativeAspect,
	}
}

// Mode returns the rotation mode, falling back to auto.
func (c Config) Mode() camio.RotationMode {
	mode, err := camio.ParseRotationMode(c.RotationMode)
	if err != nil {
		return camio.RotationAuto
	}
	return mode
}

// Policy returns the warning retention policy.
func (c Config) Policy() *trip.Policy {
	return &trip.Policy{MaxStumbles: c.MaxWarnings}
}

// Converter builds a converter for this profile. The version policy is left
// to the caller; an accept policy allows newer files up front.
func (c Config) Converter() *camio.Converter {
	return camio.NewConverter(c.Params()).
		WithRotationMode(c.Mode()).
		WithMaxVersion(c.MaxVersion).
		WithPolicy(c.Policy()).
		AllowNewerVersion(c.VersionPolicy == VersionAccept)
}
