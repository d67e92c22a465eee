// Package config loads the YAML configuration of the thai-idcard tool.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gregLibert/thai-idcard/pkg/thaiid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Reader ReaderConfig `yaml:"reader"`
	Photo  PhotoConfig  `yaml:"photo"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

type ReaderConfig struct {
	// Name selects a reader by exact name. Empty means pick one from Hints.
	Name         string        `yaml:"name"`
	Hints        []string      `yaml:"hints"`
	Wait         bool          `yaml:"wait"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type PhotoConfig struct {
	Segments int `yaml:"segments"`
	MinSize  int `yaml:"min_size"`
}

type OutputConfig struct {
	Format   string `yaml:"format"`
	PhotoDir string `yaml:"photo_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Reader: ReaderConfig{
			Hints:        append([]string(nil), thaiid.DefaultReaderHints...),
			PollInterval: time.Second,
		},
		Photo: PhotoConfig{
			Segments: thaiid.PhotoSegments,
			MinSize:  thaiid.MinPhotoSize,
		},
		Output: OutputConfig{Format: FormatText},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations after Load and flag overrides.
func (c *Config) Validate() error {
	if c.Reader.PollInterval <= 0 {
		return fmt.Errorf("config.reader.poll_interval must be > 0")
	}

	// The segment index is sent as P1.
	if c.Photo.Segments < 0 || c.Photo.Segments > 255 {
		return fmt.Errorf("config.photo.segments must be between 0 and 255, got %d", c.Photo.Segments)
	}
	if c.Photo.MinSize < 0 {
		return fmt.Errorf("config.photo.min_size must be >= 0")
	}

	switch c.Output.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("config.output.format must be one of text, json, yaml, got %q", c.Output.Format)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("config.log.level: %w", err)
	}

	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, err
	}
	return level, nil
}

// ReaderOptions turns the photo settings into thaiid options.
func (c *Config) ReaderOptions() []thaiid.Option {
	return []thaiid.Option{
		thaiid.WithPhotoSegments(c.Photo.Segments),
		thaiid.WithMinPhotoSize(c.Photo.MinSize),
	}
}
