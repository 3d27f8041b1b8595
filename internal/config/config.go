package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultConfigDir    = ".shopshield"
	DefaultSettingsFile = "settings.yaml"
	DefaultLogFile      = "overrides.db"

	// HomeEnv overrides the config directory.
	HomeEnv = "SHOPSHIELD_HOME"
)

type Config struct {
	SettingsPath string
	LogPath      string
	ConfigDir    string
}

// Load resolves file locations. Empty arguments fall back to files in the
// config directory, which is created if needed.
func Load(settingsPath, logPath string) (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	if err := ensureDir(configDir); err != nil {
		return nil, err
	}

	cfg := &Config{ConfigDir: configDir}

	if settingsPath != "" {
		cfg.SettingsPath = settingsPath
	} else {
		cfg.SettingsPath = filepath.Join(configDir, DefaultSettingsFile)
	}

	if logPath != "" {
		cfg.LogPath = logPath
	} else {
		cfg.LogPath = filepath.Join(configDir, DefaultLogFile)
	}

	return cfg, nil
}

// Dir returns the config directory: $SHOPSHIELD_HOME or ~/.shopshield.
func Dir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, DefaultConfigDir), nil
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}
