// Package xdg resolves XDG Base Directory paths for querydesk.
//
// Falls back to ~/.config and ~/.local/state when the XDG variables are unset.
// Directories are created private (0700) because they may hold connection details
// and query history.
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "querydesk"

// HistoryFileName is the shell history file kept in the state dir.
const HistoryFileName = "history"

func resolve(envVar string, fallback ...string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}

// ConfigDir returns the XDG config directory for querydesk, creating it if missing.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for querydesk, creating it if missing.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", ".local", "state")
}

// HistoryFile returns the path of the interactive shell history.
func HistoryFile() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, HistoryFileName), nil
}
