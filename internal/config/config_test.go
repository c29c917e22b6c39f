// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HUGGINGFACE_API_KEY", "COMPANION_USER_ID", "COMPANION_DATA_DIR", "COMPANION_REMOTE_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
user_id = "alice"

[provider]
api_key = "file-key"
base_url = "https://example.com/model"
timeout_seconds = 20

[storage]
data_dir = "/tmp/companion-test"
remote_url = "https://store.example.com"
max_messages = 100
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.UserID != "alice" {
		t.Errorf("UserID = %q", cfg.UserID)
	}
	if cfg.Provider.APIKey != "file-key" {
		t.Errorf("APIKey = %q", cfg.Provider.APIKey)
	}
	if cfg.Provider.BaseURL != "https://example.com/model" {
		t.Errorf("BaseURL = %q", cfg.Provider.BaseURL)
	}
	if cfg.Provider.Timeout() != 20*time.Second {
		t.Errorf("Timeout = %v", cfg.Provider.Timeout())
	}
	if cfg.Storage.RemoteURL != "https://store.example.com" {
		t.Errorf("RemoteURL = %q", cfg.Storage.RemoteURL)
	}
	if cfg.Storage.MaxMessages != 100 {
		t.Errorf("MaxMessages = %d", cfg.Storage.MaxMessages)
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.UserID != "default" {
		t.Errorf("UserID = %q, want default", cfg.UserID)
	}
	if cfg.Provider.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.Provider.APIKey)
	}
	if cfg.Provider.Timeout() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Provider.Timeout())
	}
	if cfg.Storage.MaxMessages != 500 {
		t.Errorf("MaxMessages = %d, want 500", cfg.Storage.MaxMessages)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("DataDir empty, want home default")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
user_id = "alice"

[provider]
api_key = "file-key"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HUGGINGFACE_API_KEY", "env-key")
	t.Setenv("COMPANION_USER_ID", "bob")
	t.Setenv("COMPANION_DATA_DIR", "/tmp/env-data")
	t.Setenv("COMPANION_REMOTE_URL", "https://env.example.com")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Provider.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override", cfg.Provider.APIKey)
	}
	if cfg.UserID != "bob" {
		t.Errorf("UserID = %q, want env override", cfg.UserID)
	}
	if cfg.Storage.DataDir != "/tmp/env-data" {
		t.Errorf("DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	if cfg.Storage.RemoteURL != "https://env.example.com" {
		t.Errorf("RemoteURL = %q, want env override", cfg.Storage.RemoteURL)
	}
}

func TestLoadFromBadTOML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom accepted malformed TOML")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`user_id = "before"`), 0644); err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	defer close(stop)
	reloaded := make(chan *Config, 4)

	go Watch(path, func(cfg *Config) { reloaded <- cfg }, stop)

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`user_id = "after"`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.UserID != "after" {
			t.Errorf("reloaded UserID = %q, want after", cfg.UserID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never reported the change")
	}
}
