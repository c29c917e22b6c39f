// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures for chat tabs, messages, and
// generator turns.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER / ROLE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Role identifies the speaker of a generator turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single persisted chat message. Messages are immutable once
// created; the only mutation the system performs is deletion.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user message with a generated ID.
func NewUserMessage(text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: time.Now().UTC(),
	}
}

// NewBotMessage creates an assistant message with a generated ID.
func NewBotMessage(text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderBot,
		Timestamp: time.Now().UTC(),
	}
}

// IsZero reports whether the message is the zero value.
func (m Message) IsZero() bool {
	return m.ID == "" && m.Text == ""
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is a role-tagged utterance fed to the response generator. Turns are
// ephemeral: they are derived from a tab's messages and never persisted.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
