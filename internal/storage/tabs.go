// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jeranaias/companion-tui/internal/chat"
	"github.com/jeranaias/companion-tui/internal/util"
)

// ErrNoTabs is returned when no tab state has been saved for a user.
var ErrNoTabs = &StoreError{Message: "no saved tabs"}

// tabState is the on-disk shape of a user's tab set.
type tabState struct {
	ActiveID string     `json:"active_id"`
	Tabs     []chat.Tab `json:"tabs"`
}

// =============================================================================
// TAB STORE
// =============================================================================

// TabStore persists the tab set locally, one chat_tabs_<userID>.json file
// per user. Tabs are device-local state and never go to the remote store.
type TabStore struct {
	BaseDir string
}

// NewTabStore creates a tab store rooted at baseDir.
func NewTabStore(baseDir string) (*TabStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, &StoreError{Message: "failed to create data directory", Cause: err}
	}
	return &TabStore{BaseDir: baseDir}, nil
}

// Save writes the full tab set and active tab ID atomically.
func (s *TabStore) Save(userID string, tabs []chat.Tab, activeID string) error {
	data, err := json.MarshalIndent(tabState{ActiveID: activeID, Tabs: tabs}, "", "  ")
	if err != nil {
		return &StoreError{Message: "failed to marshal tabs", Cause: err}
	}
	if err := util.AtomicWriteFile(s.path(userID), data, 0644); err != nil {
		return &StoreError{Message: "failed to write tab file", Cause: err}
	}
	return nil
}

// Load returns the saved tab set and active tab ID, or ErrNoTabs.
func (s *TabStore) Load(userID string) ([]chat.Tab, string, error) {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNoTabs
		}
		return nil, "", &StoreError{Message: "failed to read tab file", Cause: err}
	}

	var state tabState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, "", &StoreError{Message: "corrupt tab file", Cause: err}
	}
	if len(state.Tabs) == 0 {
		return nil, "", ErrNoTabs
	}
	return state.Tabs, state.ActiveID, nil
}

func (s *TabStore) path(userID string) string {
	return filepath.Join(s.BaseDir, "chat_tabs_"+sanitizeID(userID)+".json")
}
