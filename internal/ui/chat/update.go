// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the Bubble Tea update loop.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/companion-tui/internal/session"
)

// noticeDuration is how long transient status notices stay visible.
const noticeDuration = 4 * time.Second

// Init starts the spinner and text input blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// Update handles all incoming Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		m.state = StateReady
		switch {
		case msg.err == nil:
			// Reply may belong to a background tab; only redraw.
		case errors.Is(msg.err, session.ErrTabClosed):
			// Tab went away mid-generation; nothing to show.
		case errors.Is(msg.err, session.ErrBusy):
			m.notice = "Still thinking about your last message..."
			cmds = append(cmds, clearNoticeAfter(noticeDuration))
		default:
			m.notice = "Something went wrong. Please try again."
			cmds = append(cmds, clearNoticeAfter(noticeDuration))
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, tea.Batch(cmds...)

	case searchDoneMsg:
		if msg.err != nil {
			m.notice = "Search failed. Please try again."
			return m, clearNoticeAfter(noticeDuration)
		}
		m.searchQuery = msg.query
		m.searchResults = msg.results
		m.refreshViewport()
		m.viewport.GotoTop()
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.notice = "Export failed: " + msg.err.Error()
		} else {
			m.notice = "Saved transcript to " + msg.path
		}
		return m, clearNoticeAfter(noticeDuration)

	case clearNoticeMsg:
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey routes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		text := strings.TrimSpace(m.input.Value())
		if m.searching {
			if text == "" {
				return m, nil
			}
			return m, searchMessages(m.manager, text)
		}
		if text == "" || m.state == StateSending {
			return m, nil
		}
		m.input.Reset()
		m.state = StateSending
		// Show the user's message immediately; SendMessage appends it to
		// the tab before generation starts, so refresh after kickoff.
		cmd := sendMessage(m.manager, text)
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, tea.Batch(cmd, m.spinner.Tick)

	case key.Matches(msg, m.keyMap.NewTab):
		m.manager.CreateTab()
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.CloseTab):
		err := m.manager.CloseTab(context.Background(), m.manager.ActiveID())
		if errors.Is(err, session.ErrLastTab) {
			m.notice = "Keeping your last chat open."
			m.refreshViewport()
			return m, clearNoticeAfter(noticeDuration)
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.NextTab):
		m.cycleTab(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PrevTab):
		m.cycleTab(-1)
		return m, nil

	case key.Matches(msg, m.keyMap.Export):
		return m, exportTranscript(m.manager, m.exportDir)

	case key.Matches(msg, m.keyMap.Search):
		if m.searching {
			m.exitSearch()
			return m, nil
		}
		m.searching = true
		m.searchQuery = ""
		m.searchResults = nil
		m.input.Reset()
		m.input.Placeholder = "Search your messages..."
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.Cancel):
		if m.searching {
			m.exitSearch()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// exitSearch returns from search results to the live transcript.
func (m *Model) exitSearch() {
	m.searching = false
	m.searchQuery = ""
	m.searchResults = nil
	m.input.Reset()
	m.input.Placeholder = defaultPlaceholder
	m.refreshViewport()
	m.viewport.GotoBottom()
}

// cycleTab moves the active tab forward or backward, wrapping around.
func (m *Model) cycleTab(delta int) {
	tabs := m.manager.Tabs()
	if len(tabs) < 2 {
		return
	}
	active := m.manager.ActiveID()
	for i, tab := range tabs {
		if tab.ID == active {
			next := (i + delta + len(tabs)) % len(tabs)
			if err := m.manager.SwitchTab(tabs[next].ID); err == nil {
				m.refreshViewport()
				m.viewport.GotoBottom()
			}
			return
		}
	}
}

// resize recomputes component dimensions from the terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	// Header, tab bar, input box, status bar.
	chromeHeight := 7
	vpHeight := height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 8

	if renderer, err := newRenderer(width); err == nil {
		m.renderer = renderer
	}
}

func newRenderer(width int) (*glamour.TermRenderer, error) {
	wrap := width - 8
	if wrap < 20 {
		wrap = 20
	}
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
}

// refreshViewport re-renders the viewport: search results while searching,
// the active tab's transcript otherwise.
func (m *Model) refreshViewport() {
	if m.searching {
		m.viewport.SetContent(m.renderSearchResults())
		return
	}
	m.viewport.SetContent(m.renderMessages())
}

// statusLine summarizes mode and shortcuts for the status bar.
func (m Model) statusLine() string {
	mode := m.theme.ModeOffline.Render("● offline")
	if m.status != nil && m.status.IsConfigured() {
		mode = m.theme.ModeOnline.Render("● online")
	}
	shortcuts := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		m.theme.ShortcutKey.Render("C-n"), m.theme.ShortcutDesc.Render("new"),
		m.theme.ShortcutKey.Render("C-w"), m.theme.ShortcutDesc.Render("close"),
		m.theme.ShortcutKey.Render("C-f"), m.theme.ShortcutDesc.Render("search"),
		m.theme.ShortcutKey.Render("C-e"), m.theme.ShortcutDesc.Render("export"),
		m.theme.ShortcutKey.Render("C-c"), m.theme.ShortcutDesc.Render("quit"),
	)
	return mode + "  " + shortcuts
}
