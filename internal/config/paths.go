package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/relnotes/config.yml
// - macOS: ~/Library/Application Support/relnotes/config.yml
// - Windows: %APPDATA%\relnotes\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "relnotes"), nil
}

// ProjectConfigPath returns the default project-level config file name,
// relative to the repository working directory.
func ProjectConfigPath() string {
	return ".relnotes.yml"
}

// ProjectConfigCandidates lists the project config names that are looked up,
// in order. The first existing file wins.
func ProjectConfigCandidates() []string {
	return []string{ProjectConfigPath(), ".relnotes.yaml", ".relnotes.json"}
}
