// Package config provides configuration types and defaults for avdecode.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/five82/avdecode/internal/adapter"
	"github.com/five82/avdecode/internal/logging"
)

// Default constants
const (
	// DefaultFFmpegPath is the ffmpeg executable looked up in PATH.
	DefaultFFmpegPath = "ffmpeg"

	// DefaultFFprobePath is the ffprobe executable looked up in PATH.
	DefaultFFprobePath = "ffprobe"

	// DefaultVSPipePath is the vspipe executable looked up in PATH.
	DefaultVSPipePath = "vspipe"

	// DefaultLogLevel keeps library logging quiet.
	DefaultLogLevel = "warn"
)

// Environment variables read by ApplyEnv.
const (
	EnvFFmpeg   = "AVDECODE_FFMPEG"
	EnvFFprobe  = "AVDECODE_FFPROBE"
	EnvVSPipe   = "AVDECODE_VSPIPE"
	EnvBackends = "AVDECODE_BACKENDS"
	EnvThreads  = "AVDECODE_THREADS"
)

// DefaultBackends is the priority order for files without a dedicated
// backend.
func DefaultBackends() []string {
	return []string{string(adapter.FFmpeg), string(adapter.VapourSynth), string(adapter.FFMS2)}
}

// Config holds decoder selection and backend settings.
type Config struct {
	// Backends is the priority list for general files. A backend missing
	// from it is disabled, including vapoursynth for .vpy scripts.
	Backends []string `yaml:"backends"`

	// Tool paths
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	VSPipePath  string `yaml:"vspipe_path"`

	// Threads is the decoder thread count, 0 for one per logical core.
	Threads int `yaml:"threads"`

	// LumaOnly makes every backend deliver monochrome frames holding the luma
	// plane only.
	LumaOnly bool `yaml:"luma_only"`

	// CountFrames decodes the whole stream at open when the container does
	// not store a frame count.
	CountFrames bool `yaml:"count_frames"`

	LogLevel string `yaml:"log_level"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Backends:    DefaultBackends(),
		FFmpegPath:  DefaultFFmpegPath,
		FFprobePath: DefaultFFprobePath,
		VSPipePath:  DefaultVSPipePath,
		LogLevel:    DefaultLogLevel,
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := NewConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from AVDECODE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvFFmpeg); ok && v != "" {
		c.FFmpegPath = v
	}
	if v, ok := os.LookupEnv(EnvFFprobe); ok && v != "" {
		c.FFprobePath = v
	}
	if v, ok := os.LookupEnv(EnvVSPipe); ok && v != "" {
		c.VSPipePath = v
	}
	if v, ok := os.LookupEnv(EnvBackends); ok {
		c.Backends = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvThreads); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidThreads, EnvThreads, v)
		}
		c.Threads = n
	}
	return nil
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := c.Priority(); err != nil {
		return err
	}

	if c.Threads < 0 {
		return fmt.Errorf("%w: must be 0 or more, got %d", ErrInvalidThreads, c.Threads)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q, valid options: debug, info, warn, error", ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// Priority returns the backend priority list. The y4m backend is chosen by
// extension and cannot be listed.
func (c *Config) Priority() ([]adapter.Backend, error) {
	seen := make(map[adapter.Backend]bool, len(c.Backends))
	out := make([]adapter.Backend, 0, len(c.Backends))
	for _, name := range c.Backends {
		b, err := adapter.ParseBackend(name)
		if err != nil || b == adapter.Y4M {
			return nil, fmt.Errorf("%w: '%s', valid options: ffmpeg, vapoursynth, ffms2", ErrUnknownBackend, name)
		}
		if seen[b] {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateBackend, name)
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

// Enabled reports whether b appears in the priority list.
func (c *Config) Enabled(b adapter.Backend) bool {
	for _, name := range c.Backends {
		if parsed, err := adapter.ParseBackend(name); err == nil && parsed == b {
			return true
		}
	}
	return false
}
