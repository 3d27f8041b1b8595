package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	t.Setenv(HomeEnv, dir)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigDir != dir {
		t.Errorf("ConfigDir: got %q, want %q", cfg.ConfigDir, dir)
	}
	if cfg.SettingsPath != filepath.Join(dir, DefaultSettingsFile) {
		t.Errorf("SettingsPath: got %q", cfg.SettingsPath)
	}
	if cfg.LogPath != filepath.Join(dir, DefaultLogFile) {
		t.Errorf("LogPath: got %q", cfg.LogPath)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("config dir not created: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	cfg, err := Load("/tmp/s.yaml", "/tmp/o.db")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SettingsPath != "/tmp/s.yaml" || cfg.LogPath != "/tmp/o.db" {
		t.Errorf("overrides ignored: %+v", cfg)
	}
}
