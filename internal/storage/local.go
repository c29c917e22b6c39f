// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jeranaias/companion-tui/internal/chat"
	"github.com/jeranaias/companion-tui/internal/util"
)

// DefaultMaxMessages caps the on-device message file per user. The oldest
// messages are evicted first once the cap is exceeded.
const DefaultMaxMessages = 500

// =============================================================================
// LOCAL STORE
// =============================================================================

// LocalStore is the on-device message store: one JSON array per user under
// the data directory, written atomically. It doubles as the offline mirror
// for the fallback chain.
type LocalStore struct {
	// BaseDir is the directory holding messages_<userID>.json files.
	BaseDir string

	// MaxMessages limits stored messages per user (0 = unlimited).
	MaxMessages int
}

// NewLocalStore creates a local store rooted at baseDir.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, &StoreError{Message: "failed to create data directory", Cause: err}
	}
	return &LocalStore{
		BaseDir:     baseDir,
		MaxMessages: DefaultMaxMessages,
	}, nil
}

// Save appends a message to the user's file, assigning an ID if absent.
func (s *LocalStore) Save(_ context.Context, userID string, msg chat.Message) (string, error) {
	messages, err := s.read(userID)
	if err != nil {
		return "", err
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	messages = append(messages, msg)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	// Evict oldest beyond the cap.
	if s.MaxMessages > 0 && len(messages) > s.MaxMessages {
		messages = messages[len(messages)-s.MaxMessages:]
	}

	if err := s.write(userID, messages); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// List returns the user's messages ordered by timestamp. A missing file is
// an empty history, not an error.
func (s *LocalStore) List(_ context.Context, userID string) ([]chat.Message, error) {
	return s.read(userID)
}

// Delete removes one message by ID.
func (s *LocalStore) Delete(_ context.Context, userID, messageID string) error {
	messages, err := s.read(userID)
	if err != nil {
		return err
	}

	kept := messages[:0]
	found := false
	for _, msg := range messages {
		if msg.ID == messageID {
			found = true
			continue
		}
		kept = append(kept, msg)
	}
	if !found {
		return ErrMessageNotFound
	}

	return s.write(userID, kept)
}

// Search returns the user's messages whose text contains query,
// case-insensitive. An empty query matches everything.
func (s *LocalStore) Search(ctx context.Context, userID, query string) ([]chat.Message, error) {
	messages, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filterByQuery(messages, query), nil
}

// =============================================================================
// FILE I/O
// =============================================================================

func (s *LocalStore) messagesPath(userID string) string {
	return filepath.Join(s.BaseDir, "messages_"+sanitizeID(userID)+".json")
}

func (s *LocalStore) read(userID string) ([]chat.Message, error) {
	data, err := os.ReadFile(s.messagesPath(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return []chat.Message{}, nil
		}
		return nil, &StoreError{Message: "failed to read message file", Cause: err}
	}

	var messages []chat.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, &StoreError{Message: "corrupt message file", Cause: err}
	}
	return messages, nil
}

func (s *LocalStore) write(userID string, messages []chat.Message) error {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return &StoreError{Message: "failed to marshal messages", Cause: err}
	}
	if err := util.AtomicWriteFile(s.messagesPath(userID), data, 0644); err != nil {
		return &StoreError{Message: "failed to write message file", Cause: err}
	}
	return nil
}

// sanitizeID keeps user-supplied IDs from escaping the data directory.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}
