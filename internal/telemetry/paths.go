// Package telemetry persists search diagnostics (per-iteration node counts,
// scores, timings) to an embedded key-value store for offline analysis.
package telemetry

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chesscore"

// dataDir returns the platform-specific data directory for the application.
//   - macOS: ~/Library/Application Support/chesscore/
//   - Linux: ~/.local/share/chesscore/ (or $XDG_DATA_HOME/chesscore)
//   - Windows: %APPDATA%/chesscore/
func dataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultDBDir returns the default directory for the telemetry database.
func DefaultDBDir() (string, error) {
	base, err := dataDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(base, "telemetry")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}
	return dbDir, nil
}
