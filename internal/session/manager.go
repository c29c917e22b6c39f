// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session manages the set of chat tabs for the current user.
//
// The manager owns tab state, routes messages through the response
// generator, and persists messages and tab metadata. At least one tab
// exists whenever a session is active; closing the last tab is refused.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/companion-tui/internal/chat"
	"github.com/jeranaias/companion-tui/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrLastTab is returned when closing the only remaining tab.
	ErrLastTab = errors.New("cannot close the last remaining tab")

	// ErrTabNotFound is returned for operations on unknown tab IDs.
	ErrTabNotFound = errors.New("tab not found")

	// ErrBusy is returned when a send is attempted while one is in flight.
	ErrBusy = errors.New("a message is already being processed")

	// ErrTabClosed is returned when a generation finishes after its tab was
	// closed; the result is discarded.
	ErrTabClosed = errors.New("tab closed while generating")
)

// greetings seeds new tabs with an opening assistant message.
var greetings = []string{
	"Hello! I'm here to listen. How are you feeling today?",
	"Welcome! How has your day been so far?",
	"Hi there! I'm your AI wellness companion. What's on your mind?",
	"Hello! I'm here to support you. How are you doing today?",
}

// =============================================================================
// MANAGER
// =============================================================================

// Generator produces a reply given the active tab's history.
type Generator interface {
	Generate(ctx context.Context, history []chat.Turn, message string) string
}

// SendResult is the outcome of one SendMessage exchange.
type SendResult struct {
	TabID string
	User  chat.Message
	Bot   chat.Message
}

// Manager tracks the user's chat tabs and drives the message pipeline.
// Methods are safe for concurrent use, though only one send may be in
// flight at a time.
type Manager struct {
	mu       sync.Mutex
	userID   string
	tabs     []*chat.Tab
	activeID string
	busy     bool
	created  int

	gen      Generator
	messages storage.Store
	tabStore *storage.TabStore
	rng      *rand.Rand
	logger   *log.Logger
}

// New creates a manager. The random source seeds greeting selection; nil
// logger disables logging.
func New(userID string, gen Generator, messages storage.Store, tabStore *storage.TabStore, rng *rand.Rand, logger *log.Logger) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Manager{
		userID:   userID,
		gen:      gen,
		messages: messages,
		tabStore: tabStore,
		rng:      rng,
		logger:   logger,
	}
}

// =============================================================================
// TAB OPERATIONS
// =============================================================================

// CreateTab allocates a new tab seeded with a greeting, makes it active,
// and persists the updated tab set.
func (m *Manager) CreateTab() chat.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.created++
	tab := chat.NewTab(fmt.Sprintf("Chat %d", m.created))
	tab.Append(chat.NewBotMessage(greetings[m.rng.Intn(len(greetings))]))

	m.tabs = append(m.tabs, tab)
	m.activeID = tab.ID
	m.persistTabsLocked()
	return *tab.Clone()
}

// CloseTab removes a tab and deletes its messages from the message store.
// Closing the only remaining tab is refused with ErrLastTab. If the closed
// tab was active, the first remaining tab becomes active.
func (m *Manager) CloseTab(ctx context.Context, id string) error {
	m.mu.Lock()
	if len(m.tabs) <= 1 {
		m.mu.Unlock()
		return ErrLastTab
	}

	idx := m.indexOfLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrTabNotFound
	}

	closed := m.tabs[idx]
	m.tabs = append(m.tabs[:idx], m.tabs[idx+1:]...)
	if m.activeID == id {
		m.activeID = m.tabs[0].ID
	}
	doomed := make([]chat.Message, len(closed.Messages))
	copy(doomed, closed.Messages)
	m.persistTabsLocked()
	m.mu.Unlock()

	// Cascade-delete the tab's messages. Seeded greetings were never saved
	// remotely, so not-found is expected for some of these.
	for _, msg := range doomed {
		if err := m.messages.Delete(ctx, m.userID, msg.ID); err != nil && !errors.Is(err, storage.ErrMessageNotFound) {
			m.logf("failed to delete message %s: %v", msg.ID, err)
		}
	}
	return nil
}

// SwitchTab changes which tab is active. Pure state change, no I/O.
func (m *Manager) SwitchTab(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOfLocked(id) < 0 {
		return ErrTabNotFound
	}
	m.activeID = id
	return nil
}

// Tabs returns a snapshot of all tabs in creation order.
func (m *Manager) Tabs() []chat.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.Tab, 0, len(m.tabs))
	for _, tab := range m.tabs {
		out = append(out, *tab.Clone())
	}
	return out
}

// ActiveTab returns a snapshot of the active tab.
func (m *Manager) ActiveTab() chat.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.indexOfLocked(m.activeID); idx >= 0 {
		return *m.tabs[idx].Clone()
	}
	return chat.Tab{}
}

// ActiveID returns the active tab's ID.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// Busy reports whether a send is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// =============================================================================
// MESSAGE PIPELINE
// =============================================================================

// SendMessage runs one exchange: append the user message to the active tab,
// generate a reply against that tab's history, append the reply, and
// persist both messages plus the tab set.
//
// Empty input is a no-op. While a send is in flight further sends return
// ErrBusy. A generation whose tab was closed mid-flight is discarded and
// reported as ErrTabClosed; switching tabs does not cancel an in-flight
// generation, the reply lands in the tab it started from.
func (m *Manager) SendMessage(ctx context.Context, text string) (SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SendResult{}, nil
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return SendResult{}, ErrBusy
	}
	idx := m.indexOfLocked(m.activeID)
	if idx < 0 {
		m.mu.Unlock()
		return SendResult{}, ErrTabNotFound
	}
	tab := m.tabs[idx]
	history := tab.Turns()
	userMsg := chat.NewUserMessage(text)
	tab.Append(userMsg)
	tabID := tab.ID
	m.busy = true
	m.persistTabsLocked()
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.busy = false
		m.mu.Unlock()
	}()

	// Persistence failures stay invisible to the user; the store already
	// fell back to local before reporting an error.
	if _, err := m.messages.Save(ctx, m.userID, userMsg); err != nil {
		m.logf("failed to persist user message: %v", err)
	}

	reply := m.gen.Generate(ctx, history, text)
	botMsg := chat.NewBotMessage(reply)

	if id, err := m.messages.Save(ctx, m.userID, botMsg); err != nil {
		m.logf("failed to persist assistant message: %v", err)
	} else if id != "" {
		botMsg.ID = id
	}

	m.mu.Lock()
	targetIdx := m.indexOfLocked(tabID)
	if targetIdx < 0 {
		m.mu.Unlock()
		// The tab's close already cascade-deleted its stored messages; the
		// reply saved above has to follow, or a later restore from history
		// would resurrect it.
		if err := m.messages.Delete(ctx, m.userID, botMsg.ID); err != nil && !errors.Is(err, storage.ErrMessageNotFound) {
			m.logf("failed to delete discarded reply %s: %v", botMsg.ID, err)
		}
		return SendResult{}, ErrTabClosed
	}
	m.tabs[targetIdx].Append(botMsg)
	m.persistTabsLocked()
	m.mu.Unlock()

	return SendResult{TabID: tabID, User: userMsg, Bot: botMsg}, nil
}

// SearchMessages returns the user's stored messages whose text contains
// query, case-insensitive, across all tabs and sessions.
func (m *Manager) SearchMessages(ctx context.Context, query string) ([]chat.Message, error) {
	return m.messages.Search(ctx, m.userID, strings.TrimSpace(query))
}

// =============================================================================
// SESSION RESTORE
// =============================================================================

// Restore rebuilds tab state at session start: saved local tabs first, then
// one tab reconstructed from stored message history, then a fresh tab.
func (m *Manager) Restore(ctx context.Context) {
	tabs, activeID, err := m.tabStore.Load(m.userID)
	if err == nil {
		m.mu.Lock()
		m.tabs = make([]*chat.Tab, 0, len(tabs))
		for i := range tabs {
			m.tabs = append(m.tabs, tabs[i].Clone())
		}
		// Recover the naming counter from the highest surviving default
		// name, so a user who closed "Chat 2" never gets a second "Chat 3".
		m.created = len(m.tabs)
		for _, tab := range m.tabs {
			if n, ok := chatNumber(tab.Name); ok && n > m.created {
				m.created = n
			}
		}
		m.activeID = activeID
		if m.indexOfLocked(m.activeID) < 0 {
			m.activeID = m.tabs[0].ID
		}
		m.mu.Unlock()
		return
	}
	if !errors.Is(err, storage.ErrNoTabs) {
		m.logf("failed to load saved tabs: %v", err)
	}

	if history, err := m.messages.List(ctx, m.userID); err == nil && len(history) > 0 {
		tab := chat.NewTab("Chat 1")
		for _, msg := range history {
			tab.Append(msg)
		}
		m.mu.Lock()
		m.tabs = []*chat.Tab{tab}
		m.created = 1
		m.activeID = tab.ID
		m.persistTabsLocked()
		m.mu.Unlock()
		return
	}

	m.CreateTab()
}

// =============================================================================
// INTERNAL
// =============================================================================

// chatNumber extracts N from a default "Chat N" tab name.
func chatNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "Chat ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// indexOfLocked returns the index of a tab by ID. Caller holds mu.
func (m *Manager) indexOfLocked(id string) int {
	for i, tab := range m.tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}

// persistTabsLocked writes the tab set. Caller holds mu. Failures are
// logged, never surfaced.
func (m *Manager) persistTabsLocked() {
	if m.tabStore == nil {
		return
	}
	tabs := make([]chat.Tab, 0, len(m.tabs))
	for _, tab := range m.tabs {
		tabs = append(tabs, *tab.Clone())
	}
	if err := m.tabStore.Save(m.userID, tabs, m.activeID); err != nil {
		m.logf("failed to persist tabs: %v", err)
	}
}

func (m *Manager) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
