// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat messages and tab state.
//
// The message store is a fallback chain: each operation goes to the remote
// document store when it is reachable and transparently redirects to
// on-device JSON persistence when it is not, so callers never observe which
// backend served a request.
package storage

import (
	"context"
	"strings"

	"github.com/jeranaias/companion-tui/internal/chat"
)

// Store is the message persistence contract consumed by the session
// manager.
type Store interface {
	// Save persists a message for a user and returns its ID.
	Save(ctx context.Context, userID string, msg chat.Message) (string, error)

	// List returns all of a user's messages ordered by timestamp.
	List(ctx context.Context, userID string) ([]chat.Message, error)

	// Delete removes one message by ID.
	Delete(ctx context.Context, userID, messageID string) error

	// Search returns the user's messages whose text contains query,
	// case-insensitive. An empty query matches everything.
	Search(ctx context.Context, userID, query string) ([]chat.Message, error)
}

// filterByQuery narrows messages to those whose text contains query,
// case-insensitive.
func filterByQuery(messages []chat.Message, query string) []chat.Message {
	if query == "" {
		return messages
	}
	query = strings.ToLower(query)
	var results []chat.Message
	for _, msg := range messages {
		if strings.Contains(strings.ToLower(msg.Text), query) {
			results = append(results, msg)
		}
	}
	return results
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrMessageNotFound is returned when a message ID does not exist.
// Use errors.Is(err, ErrMessageNotFound) to check for it.
var ErrMessageNotFound = &StoreError{Message: "message not found"}

// StoreError represents a storage-related error.
type StoreError struct {
	Message string
	Cause   error

	// statusCode carries the HTTP status for remote-store errors.
	statusCode int
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support for comparing store errors by message.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
