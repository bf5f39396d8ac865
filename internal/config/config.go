// Package config holds the runtime configuration for the fixer engine.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the tunable knobs of the engine. All fields have working
// defaults; a YAML file and EMBYFIX_* environment variables may override
// them.
type Config struct {
	// LogLevel is the zerolog level name ("debug", "info", ...).
	LogLevel string `yaml:"logLevel"`

	// ReplacementDir holds the pre-built replacement binaries, one
	// subdirectory per architecture (e.g. <dir>/arm64/ffmpeg).
	ReplacementDir string `yaml:"replacementDir"`

	// StandInDir holds the deliberately broken stand-in binaries used to
	// simulate an architecture mismatch, laid out like ReplacementDir.
	StandInDir string `yaml:"standInDir"`

	// ProbeTimeout bounds the execution probe used during architecture
	// detection.
	ProbeTimeout time.Duration `yaml:"probeTimeout"`

	// StopGrace is how long a supervised process gets after SIGTERM
	// before it is force-killed.
	StopGrace time.Duration `yaml:"stopGrace"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel:       "info",
		ReplacementDir: "ffmpeg_binaries",
		StandInDir:     "test_binaries",
		ProbeTimeout:   2 * time.Second,
		StopGrace:      5 * time.Second,
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if path is non-empty), then environment overrides. The result is
// validated before being returned.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.mergeEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied config
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probeTimeout must be positive, got %s", c.ProbeTimeout)
	}
	if c.StopGrace <= 0 {
		return fmt.Errorf("stopGrace must be positive, got %s", c.StopGrace)
	}
	if c.ReplacementDir == "" {
		return fmt.Errorf("replacementDir must not be empty")
	}
	if c.StandInDir == "" {
		return fmt.Errorf("standInDir must not be empty")
	}
	return nil
}
