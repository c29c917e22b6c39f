// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the async messages and commands the update loop uses.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/companion-tui/internal/chat"
	"github.com/jeranaias/companion-tui/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// replyMsg carries the outcome of one message exchange.
type replyMsg struct {
	result session.SendResult
	err    error
}

// exportDoneMsg reports where a transcript landed, or why it didn't.
type exportDoneMsg struct {
	path string
	err  error
}

// searchDoneMsg carries history-search results.
type searchDoneMsg struct {
	query   string
	results []chat.Message
	err     error
}

// clearNoticeMsg expires the transient status notice.
type clearNoticeMsg struct{}

// =============================================================================
// COMMANDS
// =============================================================================

// sendMessage runs the full pipeline off the UI goroutine.
func sendMessage(mgr *session.Manager, text string) tea.Cmd {
	return func() tea.Msg {
		result, err := mgr.SendMessage(context.Background(), text)
		return replyMsg{result: result, err: err}
	}
}

// searchMessages queries the user's stored history off the UI goroutine.
func searchMessages(mgr *session.Manager, query string) tea.Cmd {
	return func() tea.Msg {
		results, err := mgr.SearchMessages(context.Background(), query)
		return searchDoneMsg{query: query, results: results, err: err}
	}
}

// exportTranscript writes the active tab as Markdown.
func exportTranscript(mgr *session.Manager, dir string) tea.Cmd {
	return func() tea.Msg {
		tab := mgr.ActiveTab()
		if tab.ID == "" {
			return exportDoneMsg{err: errors.New("no active tab")}
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return exportDoneMsg{err: err}
		}
		name := fmt.Sprintf("companion-%s.md", time.Now().Format("2006-01-02-150405"))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(tab.ExportMarkdown()), 0644); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path}
	}
}

// clearNoticeAfter expires the notice bar after a delay.
func clearNoticeAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearNoticeMsg{}
	})
}
