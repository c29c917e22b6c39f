// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads companion configuration from a TOML file with
// environment variable overrides.
//
// The config file lives at ~/.companion/config.toml. A missing file is not
// an error; defaults apply and env vars can fill in the rest. Precedence,
// lowest to highest: defaults, file, environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// TYPES
// =============================================================================

// Config holds all companion settings.
type Config struct {
	// UserID scopes persisted messages and tabs.
	UserID string `toml:"user_id"`

	Provider ProviderConfig `toml:"provider"`
	Storage  StorageConfig  `toml:"storage"`
}

// ProviderConfig configures the hosted text-generation API.
type ProviderConfig struct {
	// APIKey authenticates against the inference API. Usually set via the
	// HUGGINGFACE_API_KEY environment variable instead of the file.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the model endpoint. Empty selects the default.
	BaseURL string `toml:"base_url"`

	// TimeoutSeconds bounds a single generation request.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// StorageConfig configures message and tab persistence.
type StorageConfig struct {
	// DataDir is where local JSON state lives. Empty selects
	// ~/.companion/data.
	DataDir string `toml:"data_dir"`

	// RemoteURL is the base URL of the remote message store. Empty disables
	// remote persistence entirely; everything stays local.
	RemoteURL string `toml:"remote_url"`

	// MaxMessages caps locally retained messages per user.
	MaxMessages int `toml:"max_messages"`
}

// =============================================================================
// LOADING
// =============================================================================

// Dir returns the companion config directory (~/.companion).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".companion"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads configuration from the default path.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit path. The file may be
// absent; defaults and environment overrides still apply.
func LoadFrom(path string) (*Config, error) {
	cfg := defaults()

	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Storage.DataDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		cfg.Storage.DataDir = filepath.Join(dir, "data")
	}
	if cfg.Storage.MaxMessages <= 0 {
		cfg.Storage.MaxMessages = 500
	}
	if cfg.Provider.TimeoutSeconds <= 0 {
		cfg.Provider.TimeoutSeconds = 10
	}
	if cfg.UserID == "" {
		cfg.UserID = "default"
	}
	return cfg, nil
}

// Timeout returns the provider timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func defaults() *Config {
	return &Config{
		Provider: ProviderConfig{TimeoutSeconds: 10},
		Storage:  StorageConfig{MaxMessages: 500},
	}
}

// applyEnv layers environment overrides on top of file values.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("HUGGINGFACE_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("COMPANION_USER_ID")); v != "" {
		cfg.UserID = v
	}
	if v := strings.TrimSpace(os.Getenv("COMPANION_DATA_DIR")); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("COMPANION_REMOTE_URL")); v != "" {
		cfg.Storage.RemoteURL = v
	}
}

// =============================================================================
// HOT RELOAD
// =============================================================================

// Watch re-reads the config file whenever it changes and invokes onChange
// with the fresh config. It blocks until the context-free stop channel
// closes; run it in a goroutine. Parse errors on reload are ignored so a
// half-written file cannot wipe live credentials.
func Watch(path string, onChange func(*Config), stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// a watch on the old inode goes stale.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if cfg, err := LoadFrom(path); err == nil {
				onChange(cfg)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
