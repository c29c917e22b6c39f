// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file renders the chat layout: header, tab bar, transcript,
// input box, and status bar.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/companion-tui/internal/chat"
)

// View renders the full chat screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Header.Render("Wellness Companion"))
	b.WriteString("\n")
	b.WriteString(m.renderTabBar())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.state == StateSending {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.ThinkingText.Render(" thinking..."))
	} else if m.notice != "" {
		b.WriteString(m.theme.Notice.Render(m.notice))
	}
	b.WriteString("\n")

	b.WriteString(m.theme.InputContainer.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.theme.StatusBar.Render(m.statusLine()))

	return b.String()
}

// renderTabBar draws one segment per tab, highlighting the active one.
func (m Model) renderTabBar() string {
	tabs := m.manager.Tabs()
	active := m.manager.ActiveID()

	segments := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		label := tab.Name
		if tab.ID == active {
			segments = append(segments, m.theme.TabActive.Render(label))
		} else {
			segments = append(segments, m.theme.TabInactive.Render(label))
		}
	}
	return m.theme.TabBar.Render(lipgloss.JoinHorizontal(lipgloss.Top, segments...))
}

// renderMessages renders the active tab's transcript for the viewport.
func (m Model) renderMessages() string {
	tab := m.manager.ActiveTab()
	if len(tab.Messages) == 0 {
		return m.theme.Notice.Render("Start the conversation whenever you're ready.")
	}

	var b strings.Builder
	for i, msg := range tab.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

// renderSearchResults renders matches across the user's stored history.
func (m Model) renderSearchResults() string {
	if m.searchQuery == "" {
		return m.theme.Notice.Render("Type a word or phrase and press enter to search your history.")
	}
	if len(m.searchResults) == 0 {
		return m.theme.Notice.Render(fmt.Sprintf("No messages matching %q. Press esc to go back.", m.searchQuery))
	}

	var b strings.Builder
	b.WriteString(m.theme.Notice.Render(fmt.Sprintf("%d matching message(s) for %q. Press esc to go back.", len(m.searchResults), m.searchQuery)))
	b.WriteString("\n\n")
	for i, msg := range m.searchResults {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage draws one message bubble with sender label and timestamp.
func (m Model) renderMessage(msg chat.Message) string {
	ts := m.theme.Timestamp.Render(msg.Timestamp.Local().Format("15:04"))

	if msg.Sender == chat.SenderUser {
		label := m.theme.SenderLabel.Render("You") + " " + ts
		body := m.theme.UserBubble.Render(m.wrapText(msg.Text))
		block := label + "\n" + body
		return lipgloss.PlaceHorizontal(m.contentWidth(), lipgloss.Right, block)
	}

	label := m.theme.SenderLabel.Render("Companion") + " " + ts
	body := m.theme.BotBubble.Render(m.renderBotText(msg.Text))
	return label + "\n" + body
}

// renderBotText runs companion replies through the Markdown renderer,
// falling back to plain wrapped text.
func (m Model) renderBotText(text string) string {
	if m.renderer != nil {
		if out, err := m.renderer.Render(text); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return m.wrapText(text)
}

// wrapText word-wraps to the bubble width using display cell widths, so
// wide runes don't overflow the terminal.
func (m Model) wrapText(text string) string {
	limit := m.contentWidth() - 12
	if limit < 20 {
		limit = 20
	}

	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(wrapLine(line, limit))
	}
	return b.String()
}

func wrapLine(line string, limit int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return line
	}

	var b strings.Builder
	width := 0
	for i, word := range words {
		w := runewidth.StringWidth(word)
		switch {
		case i == 0:
			b.WriteString(word)
			width = w
		case width+1+w > limit:
			b.WriteString("\n")
			b.WriteString(word)
			width = w
		default:
			b.WriteString(" ")
			b.WriteString(word)
			width += 1 + w
		}
	}
	return b.String()
}

func (m Model) contentWidth() int {
	if m.width > 0 {
		return m.width
	}
	return 80
}
