// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
	"time"
)

func TestAppendKeepsTimestampOrder(t *testing.T) {
	tab := NewTab("Chat 1")
	now := time.Now().UTC()

	late := NewUserMessage("later")
	late.Timestamp = now.Add(time.Minute)
	early := NewBotMessage("earlier")
	early.Timestamp = now

	tab.Append(late)
	tab.Append(early)

	if tab.Messages[0].Text != "earlier" || tab.Messages[1].Text != "later" {
		t.Errorf("messages not ordered by timestamp: %q, %q", tab.Messages[0].Text, tab.Messages[1].Text)
	}
}

func TestTurnsMapSenderToRole(t *testing.T) {
	tab := NewTab("Chat 1")
	tab.Append(NewBotMessage("welcome"))
	tab.Append(NewUserMessage("hi"))

	turns := tab.Turns()
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Role != RoleAssistant || turns[0].Content != "welcome" {
		t.Errorf("first turn = %+v", turns[0])
	}
	if turns[1].Role != RoleUser || turns[1].Content != "hi" {
		t.Errorf("second turn = %+v", turns[1])
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tab := NewTab("Chat 1")
	tab.Append(NewUserMessage("original"))

	cp := tab.Clone()
	cp.Append(NewUserMessage("only in the copy"))

	if tab.MessageCount() != 1 {
		t.Errorf("mutating the clone changed the original: %d messages", tab.MessageCount())
	}
	if cp.MessageCount() != 2 {
		t.Errorf("clone has %d messages, want 2", cp.MessageCount())
	}
}

func TestExportMarkdown(t *testing.T) {
	tab := NewTab("Evening check-in")
	tab.Append(NewUserMessage("today was hard"))
	tab.Append(NewBotMessage("thank you for sharing that"))

	out := tab.ExportMarkdown()

	for _, want := range []string{
		"# Evening check-in",
		"**You**",
		"today was hard",
		"**Companion**",
		"thank you for sharing that",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}
	if strings.Index(out, "today was hard") > strings.Index(out, "thank you for sharing that") {
		t.Error("messages exported out of order")
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	tab := NewTab("Chat 1")
	tab.Append(NewUserMessage("hi"))

	data, err := tab.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if !strings.Contains(string(data), `"text": "hi"`) {
		t.Errorf("export missing message text: %s", data)
	}
}
