// Package datadir resolves where curvetour keeps its own state: the default
// config file, the dataset cache and .env files. It is unrelated to the
// directory the light curves are read from.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the state directory name under $HOME.
	DefaultDirName = ".curvetour"

	// EnvVar overrides the state directory.
	EnvVar = "CURVETOUR_HOME"

	// ConfigFileName is the default config file inside the root.
	ConfigFileName = "config.yaml"

	// CacheFileName is the SQLite dataset cache inside CacheDir.
	CacheFileName = "curves.db"

	cacheSubdir = "cache"
)

// DataDir is the resolved state directory.
type DataDir struct {
	root string
}

// New resolves the state directory without creating it.
//
// Resolution priority:
//  1. CURVETOUR_HOME environment variable
//  2. configValue
//  3. ~/.curvetour/
func New(configValue string) (*DataDir, error) {
	root, err := resolveRoot(configValue)
	if err != nil {
		return nil, err
	}
	return &DataDir{root: root}, nil
}

// Root returns the state directory.
func (d *DataDir) Root() string { return d.root }

// ConfigPath returns {root}/config.yaml.
func (d *DataDir) ConfigPath() string { return filepath.Join(d.root, ConfigFileName) }

// CacheDir returns {root}/cache/.
func (d *DataDir) CacheDir() string { return filepath.Join(d.root, cacheSubdir) }

// CachePath returns {root}/cache/curves.db.
func (d *DataDir) CachePath() string { return filepath.Join(d.CacheDir(), CacheFileName) }

// EnsureDirs creates the root and cache directories with 0700 permissions.
func (d *DataDir) EnsureDirs() error {
	for _, dir := range []string{d.root, d.CacheDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func resolveRoot(configValue string) (string, error) {
	dir := os.Getenv(EnvVar)
	if dir == "" {
		dir = configValue
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultDirName)
	}
	return dir, nil
}
