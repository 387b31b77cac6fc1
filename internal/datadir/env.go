package datadir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileEnvVar names a single .env file to load instead of the defaults.
const EnvFileEnvVar = "CURVETOUR_ENV_FILE"

// LoadEnv loads KEY=VALUE .env files. Existing environment variables are
// never overridden and earlier files win over later ones.
//
// Search order:
//  1. CURVETOUR_ENV_FILE (if set, only that file is loaded)
//  2. {root}/.env
//  3. .env in the working directory
//  4. .env in each of dirs
func LoadEnv(root string, dirs ...string) error {
	files := FindEnvFiles(root, dirs...)
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// FindEnvFiles returns the .env files LoadEnv would read, in order.
func FindEnvFiles(root string, dirs ...string) []string {
	var found []string
	for _, p := range envCandidates(root, dirs...) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			found = append(found, p)
		}
	}
	return found
}

func envCandidates(root string, dirs ...string) []string {
	if override := os.Getenv(EnvFileEnvVar); override != "" {
		return []string{override}
	}

	var paths []string
	if root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	for _, d := range dirs {
		if d != "" {
			paths = append(paths, filepath.Join(d, ".env"))
		}
	}

	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, p)
	}
	return out
}
