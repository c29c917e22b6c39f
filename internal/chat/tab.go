// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TAB TYPE
// =============================================================================

// Tab is one independent conversation thread. A user may hold several tabs
// at once; the session manager guarantees at least one exists while the chat
// is active.
type Tab struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewTab creates an empty tab with a generated ID.
func NewTab(name string) *Tab {
	now := time.Now().UTC()
	return &Tab{
		ID:          uuid.NewString(),
		Name:        name,
		Messages:    make([]Message, 0, 16),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Append adds a message to the tab and bumps LastUpdated. Messages within a
// tab stay strictly ordered by timestamp.
func (t *Tab) Append(msg Message) {
	t.Messages = append(t.Messages, msg)
	sort.SliceStable(t.Messages, func(i, j int) bool {
		return t.Messages[i].Timestamp.Before(t.Messages[j].Timestamp)
	})
	t.LastUpdated = time.Now().UTC()
}

// Turns converts the tab's messages into generator turns. Only the active
// tab's turns are ever handed to the generator.
func (t *Tab) Turns() []Turn {
	turns := make([]Turn, 0, len(t.Messages))
	for _, msg := range t.Messages {
		role := RoleAssistant
		if msg.Sender == SenderUser {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Content: msg.Text})
	}
	return turns
}

// MessageCount returns the number of messages in the tab.
func (t *Tab) MessageCount() int {
	return len(t.Messages)
}

// Clone returns a deep copy of the tab.
func (t *Tab) Clone() *Tab {
	cp := *t
	cp.Messages = make([]Message, len(t.Messages))
	copy(cp.Messages, t.Messages)
	return &cp
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the tab as a Markdown transcript with timestamps
// and role labels.
func (t *Tab) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + t.Name + "\n\n")
	sb.WriteString("Created: " + t.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range t.Messages {
		role := "**You**"
		if msg.Sender == SenderBot {
			role = "**Companion**"
		}
		sb.WriteString(role + " (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Text)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON renders the tab as pretty-printed JSON.
func (t *Tab) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
