// Package config loads process settings for the kvstore binaries from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	kvstore "github.com/krisalay/kvstore"
	"github.com/krisalay/kvstore/expiration"
)

// ErrInvalid is returned for a configuration that parses but cannot be used.
var ErrInvalid = errors.New("config: invalid configuration")

/*
Config is the file format:

	shards: 16
	expiration:
	  period: 1s
	  sample_size: 20
	  threshold: 0.2
	  max_passes: 0
	log:
	  level: info

Every field is optional; missing ones keep the values from Default.
*/
type Config struct {
	Shards     int               `yaml:"shards"`
	Expiration expiration.Config `yaml:"expiration"`
	Log        Log               `yaml:"log"`
}

// Log configures the process logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Shards:     kvstore.DefaultShardCount(),
		Expiration: expiration.DefaultConfig(),
		Log:        Log{Level: "info"},
	}
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over Default and validates the result. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Shards <= 0 {
		return fmt.Errorf("%w: shards must be positive, got %d", ErrInvalid, c.Shards)
	}
	if err := c.Expiration.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error", optionally with an offset like "info+2").
// An empty level means info.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// Options converts the file settings into store options. Logger, metrics and loader are
// left for the caller to fill in.
func (c Config) Options() kvstore.Options {
	return kvstore.Options{
		Shards:     c.Shards,
		Expiration: c.Expiration,
	}
}
