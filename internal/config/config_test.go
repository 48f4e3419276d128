package config

import (
	"testing"
)

func TestSaveLoad_roundtrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.ServerURL = "https://sync.example.com"
	cfg.Token = "tok123"
	cfg.UserID = "user-1"
	cfg.SyncIntervalSeconds = 60

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ServerURL != cfg.ServerURL {
		t.Errorf("ServerURL = %q, want %q", loaded.ServerURL, cfg.ServerURL)
	}
	if loaded.Token != cfg.Token {
		t.Errorf("Token = %q, want %q", loaded.Token, cfg.Token)
	}
	if loaded.UserID != cfg.UserID {
		t.Errorf("UserID = %q, want %q", loaded.UserID, cfg.UserID)
	}
	if loaded.SyncIntervalSeconds != 60 {
		t.Errorf("SyncIntervalSeconds = %d, want 60", loaded.SyncIntervalSeconds)
	}
}

func TestLoad_missingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HABITSYNC_SERVER_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults for missing file", err)
	}
	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
	if cfg.Token != "" {
		t.Errorf("Token = %q, want empty", cfg.Token)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("HABITSYNC_SERVER_URL", "")

	cfg := DefaultConfig()
	if cfg.SyncIntervalSeconds <= 0 {
		t.Errorf("SyncIntervalSeconds = %d, want positive default", cfg.SyncIntervalSeconds)
	}
}
