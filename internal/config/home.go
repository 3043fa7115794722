package config

import (
	"os"
	"path/filepath"
)

const (
	// BerthHomeEnv is the environment variable for the berth home directory
	BerthHomeEnv = "BERTH_HOME"
	// DefaultBerthDir is the default directory name under user home
	DefaultBerthDir = ".berth"
	// LogsSubdir is the subdirectory for CLI log files
	LogsSubdir = "logs"
)

// BerthHome returns the berth home directory.
// It checks the BERTH_HOME environment variable first, then defaults to ~/.berth
func BerthHome() (string, error) {
	if home := os.Getenv(BerthHomeEnv); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultBerthDir), nil
}

// LogsDir returns the CLI log directory (~/.berth/logs)
func LogsDir() (string, error) {
	home, err := BerthHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LogsSubdir), nil
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
