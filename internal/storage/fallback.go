// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"log"

	"github.com/jeranaias/companion-tui/internal/chat"
)

// backend is one step in the persistence fallback chain.
type backend struct {
	name  string
	store Store
	// available gates the backend; nil means always available.
	available func(ctx context.Context) bool
}

// =============================================================================
// FALLBACK STORE
// =============================================================================

// FallbackStore composes the remote document store with the local JSON
// store as an ordered chain: remote first when reachable, local otherwise
// or on any remote failure. Successful remote writes are mirrored locally
// so an offline restart still has history. Callers cannot tell which
// backend served a request; an error surfaces only when every backend
// fails.
type FallbackStore struct {
	remote *RemoteStore
	local  *LocalStore
	chain  []backend
	logger *log.Logger
}

// NewFallbackStore builds the chain. A nil logger disables logging.
func NewFallbackStore(remote *RemoteStore, local *LocalStore, logger *log.Logger) *FallbackStore {
	f := &FallbackStore{
		remote: remote,
		local:  local,
		logger: logger,
	}
	f.chain = []backend{
		{name: "remote", store: remote, available: remote.Reachable},
		{name: "local", store: local},
	}
	return f
}

// Save persists the message through the first working backend. A remote
// save is mirrored into the local store best-effort.
func (f *FallbackStore) Save(ctx context.Context, userID string, msg chat.Message) (string, error) {
	var lastErr error
	for _, b := range f.chain {
		if b.available != nil && !b.available(ctx) {
			continue
		}
		id, err := b.store.Save(ctx, userID, msg)
		if err != nil {
			lastErr = err
			f.logf("%s save failed, trying next: %v", b.name, err)
			continue
		}
		if b.name == "remote" {
			msg.ID = id
			if _, err := f.local.Save(ctx, userID, msg); err != nil {
				f.logf("local mirror of message failed: %v", err)
			}
		}
		return id, nil
	}
	return "", lastErr
}

// List returns the user's messages from the first working backend.
func (f *FallbackStore) List(ctx context.Context, userID string) ([]chat.Message, error) {
	var lastErr error
	for _, b := range f.chain {
		if b.available != nil && !b.available(ctx) {
			continue
		}
		messages, err := b.store.List(ctx, userID)
		if err != nil {
			lastErr = err
			f.logf("%s list failed, trying next: %v", b.name, err)
			continue
		}
		return messages, nil
	}
	return nil, lastErr
}

// Search queries the first working backend for matching messages.
func (f *FallbackStore) Search(ctx context.Context, userID, query string) ([]chat.Message, error) {
	var lastErr error
	for _, b := range f.chain {
		if b.available != nil && !b.available(ctx) {
			continue
		}
		messages, err := b.store.Search(ctx, userID, query)
		if err != nil {
			lastErr = err
			f.logf("%s search failed, trying next: %v", b.name, err)
			continue
		}
		return messages, nil
	}
	return nil, lastErr
}

// Delete removes the message wherever it lives. The local mirror is always
// cleaned up so the two backends do not drift.
func (f *FallbackStore) Delete(ctx context.Context, userID, messageID string) error {
	var lastErr error
	deleted := false
	for _, b := range f.chain {
		if b.available != nil && !b.available(ctx) {
			continue
		}
		if err := b.store.Delete(ctx, userID, messageID); err != nil {
			if errors.Is(err, ErrMessageNotFound) && deleted {
				continue
			}
			lastErr = err
			f.logf("%s delete failed: %v", b.name, err)
			continue
		}
		deleted = true
	}
	if deleted {
		return nil
	}
	return lastErr
}

func (f *FallbackStore) logf(format string, args ...any) {
	if f.logger != nil {
		f.logger.Printf(format, args...)
	}
}
