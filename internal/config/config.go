// Package config loads curvetour settings from a YAML or JSON file, with
// CURVETOUR_* environment overrides applied on top.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"curvetour/internal/curve"
	"curvetour/internal/dataset"
	"curvetour/internal/index"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full curvetour configuration.
type Config struct {
	// CurveDir is the root searched for light-curve files.
	CurveDir    string `json:"curve_dir" yaml:"curve_dir"`
	Extension   string `json:"extension" yaml:"extension"`
	HeaderLines int    `json:"header_lines" yaml:"header_lines"`
	Resolution  int    `json:"resolution" yaml:"resolution"`
	SampleSize  int    `json:"sample_size" yaml:"sample_size"`
	Seed        uint64 `json:"seed" yaml:"seed"`
	Workers     int    `json:"workers,omitempty" yaml:"workers,omitempty"`

	Period     PeriodConfig     `json:"period" yaml:"period"`
	Regression RegressionConfig `json:"regression" yaml:"regression"`
	Index      IndexConfig      `json:"index" yaml:"index"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Sessions   SessionsConfig   `json:"sessions" yaml:"sessions"`
	Debug      DebugConfig      `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// PeriodConfig tunes the Lomb-Scargle search.
type PeriodConfig struct {
	Oversampling        float64 `json:"oversampling" yaml:"oversampling"`
	HighFrequencyFactor float64 `json:"high_frequency_factor" yaml:"high_frequency_factor"`
	MaxFrequencies      int     `json:"max_frequencies" yaml:"max_frequencies"`
	CleanOutliers       bool    `json:"clean_outliers" yaml:"clean_outliers"`
}

// RegressionConfig tunes the phase-grid resampling.
type RegressionConfig struct {
	Neighbors int `json:"neighbors" yaml:"neighbors"`
}

// IndexConfig selects the similarity index.
type IndexConfig struct {
	Kind     string `json:"kind" yaml:"kind"`
	LeafSize int    `json:"leaf_size" yaml:"leaf_size"`
}

// CacheConfig controls the SQLite dataset cache. An empty Path means the
// default location under the state directory.
type CacheConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// SessionsConfig controls tour sessions.
type SessionsConfig struct {
	IdleTimeoutSeconds int `json:"idle_timeout_seconds" yaml:"idle_timeout_seconds"`
}

// DebugConfig contains logging switches.
type DebugConfig struct {
	VerboseLogging bool   `json:"verbose_logging,omitempty" yaml:"verbose_logging,omitempty"`
	LogFormat      string `json:"log_format,omitempty" yaml:"log_format,omitempty"`
}

// Default returns the settings used for the MACHO light-curve archive.
func Default() *Config {
	p := curve.DefaultPeriodOptions()
	return &Config{
		CurveDir:    "./data",
		Extension:   curve.DefaultExtension,
		HeaderLines: curve.DefaultHeaderLines,
		Resolution:  20,
		Period: PeriodConfig{
			Oversampling:        p.Oversampling,
			HighFrequencyFactor: p.HighFrequencyFactor,
			MaxFrequencies:      p.MaxFrequencies,
			CleanOutliers:       p.Clean,
		},
		Regression: RegressionConfig{Neighbors: curve.DefaultNeighbors},
		Index:      IndexConfig{Kind: string(index.KindKDTree), LeafSize: 16},
		Cache:      CacheConfig{Enabled: true},
		Sessions:   SessionsConfig{IdleTimeoutSeconds: 1800},
		Debug:      DebugConfig{LogFormat: "text"},
	}
}

// Load reads the configuration at path, creating it with defaults when it
// does not exist. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Created default configuration at %s\n", path)
		return cfg, applyAndValidate(cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyAndValidate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyAndValidate(cfg *Config) error {
	cfg.expandTilde()
	cfg.expandEnvVars()

	if err := cfg.applyEnv(); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.CurveDir == "" {
		return fmt.Errorf("%w: curve_dir cannot be empty", ErrInvalid)
	}
	if c.Resolution < 2 {
		return fmt.Errorf("%w: resolution must be at least 2 (got %d)", ErrInvalid, c.Resolution)
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("%w: sample_size cannot be negative (got %d)", ErrInvalid, c.SampleSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative (got %d)", ErrInvalid, c.Workers)
	}
	if c.Regression.Neighbors < 1 {
		return fmt.Errorf("%w: regression.neighbors must be at least 1 (got %d)", ErrInvalid, c.Regression.Neighbors)
	}
	if c.Period.Oversampling <= 0 || c.Period.HighFrequencyFactor <= 0 {
		return fmt.Errorf("%w: period oversampling and high_frequency_factor must be positive", ErrInvalid)
	}
	switch index.Kind(c.Index.Kind) {
	case index.KindKDTree, index.KindFlat:
	default:
		return fmt.Errorf("%w: index.kind must be %q or %q (got %q)", ErrInvalid, index.KindKDTree, index.KindFlat, c.Index.Kind)
	}
	if c.Sessions.IdleTimeoutSeconds < 0 {
		return fmt.Errorf("%w: sessions.idle_timeout_seconds cannot be negative", ErrInvalid)
	}
	switch c.Debug.LogFormat {
	case "", "text", "json", "logfmt":
	default:
		return fmt.Errorf("%w: invalid log format: %s (must be one of: text, json, logfmt)", ErrInvalid, c.Debug.LogFormat)
	}
	return nil
}

// DatasetOptions maps the configuration onto dataset loading options.
func (c *Config) DatasetOptions() dataset.Options {
	return dataset.Options{
		Root:        c.CurveDir,
		Extension:   c.Extension,
		HeaderLines: c.HeaderLines,
		Resolution:  c.Resolution,
		SampleSize:  c.SampleSize,
		Seed:        c.Seed,
		Workers:     c.Workers,
		Neighbors:   c.Regression.Neighbors,
		Period: curve.PeriodOptions{
			Oversampling:        c.Period.Oversampling,
			HighFrequencyFactor: c.Period.HighFrequencyFactor,
			MaxFrequencies:      c.Period.MaxFrequencies,
			Clean:               c.Period.CleanOutliers,
		},
	}
}

// IndexOptions maps the configuration onto index options.
func (c *Config) IndexOptions() index.Config {
	return index.Config{Kind: index.Kind(c.Index.Kind), LeafSize: c.Index.LeafSize}
}

// SessionIdleTimeout returns the idle timeout; zero keeps sessions forever.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.Sessions.IdleTimeoutSeconds) * time.Second
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (c *Config) expandEnvVars() {
	c.CurveDir = os.ExpandEnv(c.CurveDir)
	c.Cache.Path = os.ExpandEnv(c.Cache.Path)
}

// expandTilde replaces a leading "~/" with the user's home directory in
// path-valued fields.
func (c *Config) expandTilde() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	expand := func(p string) string {
		if p == "~" {
			return home
		}
		if strings.HasPrefix(p, "~/") {
			return filepath.Join(home, p[2:])
		}
		return p
	}

	c.CurveDir = expand(c.CurveDir)
	c.Cache.Path = expand(c.Cache.Path)
}
