// Package config resolves process configuration from a YAML file and
// PRIVACYBLUR_* environment variables. Every layer is partial: a value left
// out keeps whatever the previous layer set.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mj1618/privacy-blur/internal/logging"
	"github.com/mj1618/privacy-blur/internal/model"
	"github.com/mj1618/privacy-blur/internal/overlay"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is read from the working directory when present.
	DefaultFile = "privacy-blur.yaml"
	// EnvPrefix prefixes every environment variable, e.g. PRIVACYBLUR_BLUR_RADIUS.
	EnvPrefix = "PRIVACYBLUR"
)

// File is the YAML configuration file layout.
type File struct {
	Strategy string                `yaml:"strategy,omitempty"`
	LogLevel string                `yaml:"log_level,omitempty"`
	Overlay  model.ConfigOverrides `yaml:"overlay,omitempty"`
}

// Env holds the environment overrides.
type Env struct {
	Enabled          *bool          `envconfig:"ENABLED"`
	BlurRadius       *int           `envconfig:"BLUR_RADIUS"`
	FadeDuration     *time.Duration `envconfig:"FADE_DURATION"`
	DownsampleFactor *int           `envconfig:"DOWNSAMPLE_FACTOR"`
	Density          *float64       `envconfig:"DENSITY"`
	MaskColor        *string        `envconfig:"MASK_COLOR"`
	Strategy         string         `envconfig:"STRATEGY"`
	LogLevel         string         `envconfig:"LOG_LEVEL"`
	LogDev           bool           `envconfig:"LOG_DEV"`
}

// Settings is the merged result of all layers.
type Settings struct {
	Overlay  overlay.Patch
	Strategy string
	LogLevel string
	LogDev   bool
	// Source names the file that was read, if any.
	Source string
}

// Load reads path (or DefaultFile when path is empty and the file exists)
// and applies environment overrides on top.
func Load(path string) (*Settings, error) {
	required := path != ""
	if path == "" {
		path = DefaultFile
	}
	s := &Settings{}

	f, err := ReadFile(path)
	switch {
	case err == nil:
		if err := s.applyFile(f); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		s.Source = path
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, err
	}

	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	if err := s.applyEnv(env); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadFile parses a YAML configuration file.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("invalid config YAML: %w", err)
	}
	return f, nil
}

// LoadEnv reads the PRIVACYBLUR_* variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return Env{}, fmt.Errorf("failed to load environment: %w", err)
	}
	return e, nil
}

// Apply layers p over the overlay settings loaded so far.
func (s *Settings) Apply(p overlay.Patch) {
	s.Overlay = s.Overlay.Merge(p)
}

// OverlayConfig returns the defaults updated with every layer.
func (s *Settings) OverlayConfig() overlay.Config {
	return overlay.DefaultConfig().Apply(s.Overlay)
}

// Logging returns the logger configuration.
func (s *Settings) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if s.LogLevel != "" {
		cfg.Level = s.LogLevel
	}
	cfg.Development = s.LogDev
	return cfg
}

func (s *Settings) applyFile(f File) error {
	p, err := overlay.PatchFromOverrides(&f.Overlay)
	if err != nil {
		return err
	}
	s.Apply(p)
	if f.Strategy != "" {
		s.Strategy = f.Strategy
	}
	if f.LogLevel != "" {
		s.LogLevel = f.LogLevel
	}
	return nil
}

func (s *Settings) applyEnv(e Env) error {
	p := overlay.Patch{
		Enabled:          e.Enabled,
		BlurRadius:       e.BlurRadius,
		FadeDuration:     e.FadeDuration,
		DownsampleFactor: e.DownsampleFactor,
		Density:          e.Density,
	}
	if e.MaskColor != nil {
		mask, err := overlay.PatchFromOverrides(&model.ConfigOverrides{MaskColor: e.MaskColor})
		if err != nil {
			return fmt.Errorf("%s_MASK_COLOR: %w", EnvPrefix, err)
		}
		p.MaskColor = mask.MaskColor
	}
	s.Apply(p)
	if e.Strategy != "" {
		s.Strategy = e.Strategy
	}
	if e.LogLevel != "" {
		s.LogLevel = e.LogLevel
	}
	s.LogDev = s.LogDev || e.LogDev
	return nil
}
