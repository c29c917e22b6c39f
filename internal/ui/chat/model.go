// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/companion-tui/internal/chat"
	"github.com/jeranaias/companion-tui/internal/session"
	"github.com/jeranaias/companion-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady   State = iota // Ready for input
	StateSending              // Waiting for a reply
)

// StatusSource reports whether the hosted provider has credentials. The
// status bar uses it to show online/offline mode.
type StatusSource interface {
	IsConfigured() bool
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state  State
	notice string

	// Search mode: the input queries stored history instead of sending.
	searching     bool
	searchQuery   string
	searchResults []chat.Message

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Session state
	manager *session.Manager
	status  StatusSource

	// Markdown rendering for companion messages
	renderer *glamour.TermRenderer

	// Where exported transcripts land
	exportDir string

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap
}

// defaultPlaceholder is the input prompt outside of search mode.
const defaultPlaceholder = "Share what's on your mind..."

// New creates the chat model. The manager must already be restored.
func New(manager *session.Manager, status StatusSource, theme *styles.Theme, exportDir string) Model {
	input := textinput.New()
	input.Placeholder = defaultPlaceholder
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	vp := viewport.New(80, 20)

	// Markdown renderer is best effort; plain text is the fallback.
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)
	if err != nil {
		renderer = nil
	}

	return Model{
		state:     StateReady,
		theme:     theme,
		manager:   manager,
		status:    status,
		renderer:  renderer,
		exportDir: exportDir,
		viewport:  vp,
		input:     input,
		spinner:   sp,
		keyMap:    DefaultKeyMap(),
	}
}
