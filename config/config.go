// SPDX-License-Identifier: EPL-2.0

// Package config loads the audio system settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend. In YAML, null has to be quoted.
const (
	BackendAuto    = "auto"
	BackendOto     = "oto"
	BackendNull    = "null"
	BackendOffline = "offline"
)

// EnvBackend overrides Config.Backend when set.
const EnvBackend = "NATIVE_AUDIO_BACKEND"

const (
	DefaultSampleRate   = 44100
	DefaultBufferFrames = 1024
	DefaultMaxChannels  = 1024
	DefaultMasterVolume = 128
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings used to open the audio system.
type Config struct {
	SampleRate   int    `yaml:"sample_rate"`
	BufferFrames int    `yaml:"buffer_frames"`
	MaxChannels  int    `yaml:"max_channels"`
	Backend      string `yaml:"backend"`
	MasterVolume int    `yaml:"master_volume"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		SampleRate:   DefaultSampleRate,
		BufferFrames: DefaultBufferFrames,
		MaxChannels:  DefaultMaxChannels,
		Backend:      BackendAuto,
		MasterVolume: DefaultMasterVolume,
		LogLevel:     "info",
	}
}

// Load reads a YAML file over the defaults and applies the environment
// override.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ApplyEnv replaces the backend with $NATIVE_AUDIO_BACKEND when it is set.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		c.Backend = v
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate %d outside 8000..192000", c.SampleRate))
	}
	if c.BufferFrames < 64 {
		errs = append(errs, fmt.Errorf("buffer_frames %d below 64", c.BufferFrames))
	}
	if c.MaxChannels < 1 {
		errs = append(errs, fmt.Errorf("max_channels %d below 1", c.MaxChannels))
	}
	if c.MasterVolume < 0 || c.MasterVolume > 128 {
		errs = append(errs, fmt.Errorf("master_volume %d outside 0..128", c.MasterVolume))
	}

	switch strings.ToLower(c.Backend) {
	case BackendAuto, BackendOto, BackendNull, BackendOffline:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

// Level parses LogLevel as a slog level name such as "debug" or "warn".
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
