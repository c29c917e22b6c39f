// companion TUI - A terminal mental wellness chat companion.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/companion-tui/internal/config"
	"github.com/jeranaias/companion-tui/internal/crisis"
	"github.com/jeranaias/companion-tui/internal/generate"
	"github.com/jeranaias/companion-tui/internal/provider"
	"github.com/jeranaias/companion-tui/internal/responder"
	"github.com/jeranaias/companion-tui/internal/session"
	"github.com/jeranaias/companion-tui/internal/storage"
	"github.com/jeranaias/companion-tui/internal/ui/chat"
	"github.com/jeranaias/companion-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("companion %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer closeLog()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Response pipeline: crisis filter first, then the hosted model with
	// the keyword responder as its offline fallback.
	client := provider.NewClient(provider.Config{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Timeout: cfg.Provider.Timeout(),
	})
	filter := crisis.NewFilterWithRand(rng)
	offline := responder.NewWithRand(rng)
	gen := generate.New(filter, client, offline, logger)

	// Storage: remote message API with local JSON fallback.
	local, err := storage.NewLocalStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	local.MaxMessages = cfg.Storage.MaxMessages
	remote := storage.NewRemoteStore(cfg.Storage.RemoteURL)
	store := storage.NewFallbackStore(remote, local, logger)

	tabStore, err := storage.NewTabStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}

	mgr := session.New(cfg.UserID, gen, store, tabStore, rng, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mgr.Restore(ctx)
	cancel()

	// Pick up credential changes without a restart.
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	if path, err := config.Path(); err == nil {
		go func() {
			err := config.Watch(path, func(fresh *config.Config) {
				client.SetAPIKey(fresh.Provider.APIKey)
			}, stopWatch)
			if err != nil {
				logger.Printf("config watch unavailable: %v", err)
			}
		}()
	}

	theme := styles.NewTheme()
	exportDir := filepath.Join(cfg.Storage.DataDir, "exports")
	model := chat.New(mgr, client, theme, exportDir)

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// openLogger writes diagnostics to a file so the TUI stays clean.
func openLogger(dataDir string) (*log.Logger, func(), error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dataDir, "companion.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := log.New(f, "", log.LstdFlags)
	return logger, func() { f.Close() }, nil
}
