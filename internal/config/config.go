// Package config loads pigeon's settings from YAML or CUE files.
//
// Every file is checked against the embedded #Config schema (schema.cue).
// YAML files are decoded on top of Default and then validated; CUE files
// are unified with the schema, which also supplies the defaults.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pigeon/internal/seed"
)

//go:embed schema.cue
var schemaCUE string

// Config is the complete pigeon configuration.
type Config struct {
	// Database is the SQLite file path.
	Database string `yaml:"database" json:"database"`

	// LockHours is the identity lock window.
	LockHours int `yaml:"lock_hours" json:"lock_hours"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Debug DebugConfig `yaml:"debug" json:"debug"`
	Seed  SeedConfig  `yaml:"seed" json:"seed"`
}

// DebugConfig gates development-only tooling.
type DebugConfig struct {
	// Enabled allows the identity lock reset. Leave off outside
	// development builds.
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// SeedConfig mirrors seed.Config in file-friendly units.
type SeedConfig struct {
	Count         int     `yaml:"count" json:"count"`
	BaseLatitude  float64 `yaml:"base_latitude" json:"base_latitude"`
	BaseLongitude float64 `yaml:"base_longitude" json:"base_longitude"`
	JitterDegrees float64 `yaml:"jitter_degrees" json:"jitter_degrees"`
	WindowHours   int     `yaml:"window_hours" json:"window_hours"`
	TTLHours      int     `yaml:"ttl_hours" json:"ttl_hours"`
}

// Default returns the built-in configuration. It matches the defaults in
// schema.cue.
func Default() Config {
	return Config{
		Database:  "pigeon.db",
		LockHours: 72,
		LogLevel:  "info",
		Seed: SeedConfig{
			Count:         15,
			BaseLatitude:  33.8938,
			BaseLongitude: 35.5018,
			JitterDegrees: 0.05,
			WindowHours:   48,
			TTLHours:      72,
		},
	}
}

// Load reads a configuration file. An empty path returns Default.
// The format is chosen by extension: .yaml, .yml or .cue.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".cue":
		return parseCUE(path, data)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension (want .yaml, .yml or .cue)", path)
	}
}

func parseYAML(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document decodes as io.EOF and leaves the defaults.
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse yaml config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()
	schema, err := schemaValue(ctx)
	if err != nil {
		return Config{}, err
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Config{}, fmt.Errorf("compile cue config: %w", err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode cue config: %w", err)
	}
	return cfg, nil
}

// Validate checks c against the #Config schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema, err := schemaValue(ctx)
	if err != nil {
		return err
	}

	v := ctx.Encode(c)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func schemaValue(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("config schema: %w", err)
	}
	return def, nil
}

// LockDuration returns LockHours as a duration.
func (c Config) LockDuration() time.Duration {
	return time.Duration(c.LockHours) * time.Hour
}

// Level returns LogLevel as a slog level. Unknown names map to Info.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// SeedGenerator returns the seed settings in generator units.
func (c Config) SeedGenerator() seed.Config {
	return seed.Config{
		Count:         c.Seed.Count,
		BaseLatitude:  c.Seed.BaseLatitude,
		BaseLongitude: c.Seed.BaseLongitude,
		Jitter:        c.Seed.JitterDegrees,
		Window:        time.Duration(c.Seed.WindowHours) * time.Hour,
		TTL:           time.Duration(c.Seed.TTLHours) * time.Hour,
	}
}
