package config

import (
	"fmt"
	"os"

	"github.com/spf13/cast"
)

// Environment variables that override file settings.
const (
	EnvCurveDir     = "CURVETOUR_CURVE_DIR"
	EnvResolution   = "CURVETOUR_RESOLUTION"
	EnvSampleSize   = "CURVETOUR_SAMPLE_SIZE"
	EnvSeed         = "CURVETOUR_SEED"
	EnvWorkers      = "CURVETOUR_WORKERS"
	EnvNeighbors    = "CURVETOUR_NEIGHBORS"
	EnvCacheEnabled = "CURVETOUR_CACHE_ENABLED"
	EnvCachePath    = "CURVETOUR_CACHE_PATH"
	EnvVerbose      = "CURVETOUR_VERBOSE"
	EnvLogFormat    = "CURVETOUR_LOG_FORMAT"
)

// applyEnv overrides fields from set, non-empty CURVETOUR_* variables.
func (c *Config) applyEnv() error {
	if v, ok := lookup(EnvCurveDir); ok {
		c.CurveDir = v
	}
	if v, ok := lookup(EnvCachePath); ok {
		c.Cache.Path = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.Debug.LogFormat = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvResolution, &c.Resolution},
		{EnvSampleSize, &c.SampleSize},
		{EnvWorkers, &c.Workers},
		{EnvNeighbors, &c.Regression.Neighbors},
	}
	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		*e.dst = n
	}

	if v, ok := lookup(EnvSeed); ok {
		seed, err := cast.ToUint64E(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Seed = seed
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{EnvCacheEnabled, &c.Cache.Enabled},
		{EnvVerbose, &c.Debug.VerboseLogging},
	}
	for _, e := range bools {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		*e.dst = b
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	return v, ok && v != ""
}
