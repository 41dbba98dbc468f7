// Package paths provides XDG-compliant path resolution for uptask.
//
// Resolution order:
// 1. UPTASK_HOME (portable root) → $UPTASK_HOME/{config,state,cache}
// 2. XDG env vars → $XDG_*_HOME/uptask
// 3. Platform defaults → ~/.config/uptask, ~/.local/state/uptask, ~/.cache/uptask
package paths

import (
	"os"
	"path/filepath"
)

const appName = "uptask"

// baseDir resolves one XDG base directory.
func baseDir(homeSub, xdgEnv string, fallback ...string) string {
	if home := os.Getenv("UPTASK_HOME"); home != "" {
		return filepath.Join(home, homeSub)
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		parts := append([]string{homeDir}, fallback...)
		return filepath.Join(append(parts, appName)...)
	}
	return ""
}

// ConfigDir returns the uptask configuration directory.
func ConfigDir() string {
	return baseDir("config", "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the uptask state directory.
// Used for the session file and logs.
func StateDir() string {
	return baseDir("state", "XDG_STATE_HOME", ".local", "state")
}

// CacheDir returns the uptask cache directory.
// Used for regenerable data such as the project list cache.
func CacheDir() string {
	return baseDir("cache", "XDG_CACHE_HOME", ".cache")
}

// SessionPath returns the path of the persisted session (bearer token and profile).
func SessionPath() string {
	return filepath.Join(StateDir(), "session.yml")
}

// LogsDir returns the directory component log files are written to.
func LogsDir() string {
	return filepath.Join(StateDir(), "logs")
}

// CachePath returns the default SQLite cache location.
func CachePath() string {
	return filepath.Join(CacheDir(), "projects.db")
}

// EnsureDirs creates all uptask directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		CacheDir(),
		LogsDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
