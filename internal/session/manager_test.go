// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/companion-tui/internal/chat"
	"github.com/jeranaias/companion-tui/internal/storage"
)

// echoGenerator replies with a fixed transform of the message. The block
// channel, when set, lets tests hold a generation open.
type echoGenerator struct {
	entered chan struct{}
	block   chan struct{}
}

func (g *echoGenerator) Generate(ctx context.Context, history []chat.Turn, message string) string {
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.block != nil {
		<-g.block
	}
	return "echo: " + message
}

func newManager(t *testing.T, gen Generator) *Manager {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	tabStore, err := storage.NewTabStore(dir)
	require.NoError(t, err)
	if gen == nil {
		gen = &echoGenerator{}
	}
	return New("alice", gen, local, tabStore, rand.New(rand.NewSource(1)), nil)
}

func TestCreateTabSeedsGreeting(t *testing.T) {
	m := newManager(t, nil)

	tab := m.CreateTab()

	require.Equal(t, "Chat 1", tab.Name)
	require.Len(t, tab.Messages, 1)
	require.Equal(t, chat.SenderBot, tab.Messages[0].Sender)
	require.NotEmpty(t, tab.Messages[0].Text)
	require.Equal(t, tab.ID, m.ActiveID())
}

func TestCreateTabNamesIncrement(t *testing.T) {
	m := newManager(t, nil)

	m.CreateTab()
	second := m.CreateTab()

	require.Equal(t, "Chat 2", second.Name)
	require.Equal(t, second.ID, m.ActiveID(), "new tab becomes active")
	require.Len(t, m.Tabs(), 2)
}

func TestSendMessageAppendsExchange(t *testing.T) {
	m := newManager(t, nil)
	m.CreateTab()

	result, err := m.SendMessage(context.Background(), "I had a long day")
	require.NoError(t, err)
	require.Equal(t, "I had a long day", result.User.Text)
	require.Equal(t, "echo: I had a long day", result.Bot.Text)

	tab := m.ActiveTab()
	require.Len(t, tab.Messages, 3) // greeting + user + bot
	require.Equal(t, chat.SenderUser, tab.Messages[1].Sender)
	require.Equal(t, chat.SenderBot, tab.Messages[2].Sender)
}

func TestSendMessageEmptyIsNoOp(t *testing.T) {
	m := newManager(t, nil)
	m.CreateTab()

	result, err := m.SendMessage(context.Background(), "   ")
	require.NoError(t, err)
	require.True(t, result.User.IsZero())
	require.Len(t, m.ActiveTab().Messages, 1, "only the greeting remains")
}

func TestSendMessageWhileBusy(t *testing.T) {
	gen := &echoGenerator{entered: make(chan struct{}, 1), block: make(chan struct{})}
	m := newManager(t, gen)
	m.CreateTab()

	done := make(chan error, 1)
	go func() {
		_, err := m.SendMessage(context.Background(), "first")
		done <- err
	}()
	<-gen.entered

	_, err := m.SendMessage(context.Background(), "second")
	require.ErrorIs(t, err, ErrBusy)

	close(gen.block)
	require.NoError(t, <-done)
}

func TestSendMessageDiscardedWhenTabClosed(t *testing.T) {
	gen := &echoGenerator{entered: make(chan struct{}, 1), block: make(chan struct{})}
	m := newManager(t, gen)
	first := m.CreateTab()
	m.CreateTab()
	require.NoError(t, m.SwitchTab(first.ID))

	done := make(chan error, 1)
	go func() {
		_, err := m.SendMessage(context.Background(), "in flight")
		done <- err
	}()
	<-gen.entered

	require.NoError(t, m.CloseTab(context.Background(), first.ID))
	close(gen.block)

	require.ErrorIs(t, <-done, ErrTabClosed)
	for _, tab := range m.Tabs() {
		for _, msg := range tab.Messages {
			require.NotEqual(t, "echo: in flight", msg.Text, "orphaned reply leaked into tab %s", tab.Name)
		}
	}
}

func TestSendMessageDiscardedReplyNotPersisted(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	tabStore, err := storage.NewTabStore(dir)
	require.NoError(t, err)
	gen := &echoGenerator{entered: make(chan struct{}, 1), block: make(chan struct{})}
	m := New("alice", gen, local, tabStore, rand.New(rand.NewSource(1)), nil)

	first := m.CreateTab()
	m.CreateTab()
	require.NoError(t, m.SwitchTab(first.ID))

	done := make(chan error, 1)
	go func() {
		_, err := m.SendMessage(context.Background(), "in flight")
		done <- err
	}()
	<-gen.entered

	require.NoError(t, m.CloseTab(context.Background(), first.ID))
	close(gen.block)
	require.ErrorIs(t, <-done, ErrTabClosed)

	// The close cascade removed the user message; the discarded reply must
	// not linger either, or a later restore would resurrect it.
	stored, err := local.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestSendMessageLandsInOriginTabAfterSwitch(t *testing.T) {
	gen := &echoGenerator{entered: make(chan struct{}, 1), block: make(chan struct{})}
	m := newManager(t, gen)
	first := m.CreateTab()
	second := m.CreateTab()
	require.NoError(t, m.SwitchTab(first.ID))

	done := make(chan error, 1)
	go func() {
		_, err := m.SendMessage(context.Background(), "hello from first")
		done <- err
	}()
	<-gen.entered

	require.NoError(t, m.SwitchTab(second.ID))
	close(gen.block)
	require.NoError(t, <-done)

	var firstTab chat.Tab
	for _, tab := range m.Tabs() {
		if tab.ID == first.ID {
			firstTab = tab
		}
	}
	require.Len(t, firstTab.Messages, 3, "reply lands in the tab it started from")
	require.Equal(t, "echo: hello from first", firstTab.Messages[2].Text)
	require.Len(t, secondTabOf(m, second.ID).Messages, 1, "background tab untouched")
}

func secondTabOf(m *Manager, id string) chat.Tab {
	for _, tab := range m.Tabs() {
		if tab.ID == id {
			return tab
		}
	}
	return chat.Tab{}
}

func TestCloseLastTabRefused(t *testing.T) {
	m := newManager(t, nil)
	tab := m.CreateTab()

	err := m.CloseTab(context.Background(), tab.ID)
	require.ErrorIs(t, err, ErrLastTab)
	require.Len(t, m.Tabs(), 1)
}

func TestCloseTabActivatesFirstRemaining(t *testing.T) {
	m := newManager(t, nil)
	first := m.CreateTab()
	second := m.CreateTab()

	require.NoError(t, m.CloseTab(context.Background(), second.ID))
	require.Equal(t, first.ID, m.ActiveID())
}

func TestCloseTabUnknown(t *testing.T) {
	m := newManager(t, nil)
	m.CreateTab()
	m.CreateTab()

	err := m.CloseTab(context.Background(), "no-such-tab")
	require.ErrorIs(t, err, ErrTabNotFound)
}

func TestCloseTabDeletesStoredMessages(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	tabStore, err := storage.NewTabStore(dir)
	require.NoError(t, err)
	m := New("alice", &echoGenerator{}, local, tabStore, rand.New(rand.NewSource(1)), nil)

	first := m.CreateTab()
	_, err = m.SendMessage(context.Background(), "remember this")
	require.NoError(t, err)
	m.CreateTab()

	require.NoError(t, m.CloseTab(context.Background(), first.ID))

	stored, err := local.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Empty(t, stored, "closed tab's messages should be deleted")
}

func TestSwitchTabUnknown(t *testing.T) {
	m := newManager(t, nil)
	m.CreateTab()

	require.ErrorIs(t, m.SwitchTab("missing"), ErrTabNotFound)
}

func TestTwoTabsHaveIsolatedHistories(t *testing.T) {
	m := newManager(t, nil)
	first := m.CreateTab()
	second := m.CreateTab()

	_, err := m.SendMessage(context.Background(), "note in second")
	require.NoError(t, err)

	require.NoError(t, m.SwitchTab(first.ID))
	_, err = m.SendMessage(context.Background(), "note in first")
	require.NoError(t, err)

	firstTab := secondTabOf(m, first.ID)
	secondTab := secondTabOf(m, second.ID)
	require.Equal(t, "note in first", firstTab.Messages[1].Text)
	require.Equal(t, "note in second", secondTab.Messages[1].Text)
	require.Len(t, firstTab.Messages, 3)
	require.Len(t, secondTab.Messages, 3)
}

func TestRestoreFromSavedTabs(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	tabStore, err := storage.NewTabStore(dir)
	require.NoError(t, err)

	m := New("alice", &echoGenerator{}, local, tabStore, rand.New(rand.NewSource(1)), nil)
	m.CreateTab()
	second := m.CreateTab()
	_, err = m.SendMessage(context.Background(), "persist me")
	require.NoError(t, err)

	// A fresh manager over the same stores sees the same session.
	restored := New("alice", &echoGenerator{}, local, tabStore, rand.New(rand.NewSource(2)), nil)
	restored.Restore(context.Background())

	require.Len(t, restored.Tabs(), 2)
	require.Equal(t, second.ID, restored.ActiveID())
	tab := restored.ActiveTab()
	require.Equal(t, "persist me", tab.Messages[1].Text)
}

func TestRestoreRebuildsFromMessageHistory(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	// Tab state lives elsewhere, so only message history is available.
	tabStore, err := storage.NewTabStore(t.TempDir())
	require.NoError(t, err)

	old := chat.NewUserMessage("from a past session")
	old.Timestamp = time.Now().UTC().Add(-time.Hour)
	_, err = local.Save(context.Background(), "alice", old)
	require.NoError(t, err)

	m := New("alice", &echoGenerator{}, local, tabStore, rand.New(rand.NewSource(1)), nil)
	m.Restore(context.Background())

	tabs := m.Tabs()
	require.Len(t, tabs, 1)
	require.Len(t, tabs[0].Messages, 1)
	require.Equal(t, "from a past session", tabs[0].Messages[0].Text)
}

func TestRestoreRecoversNamingCounter(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	tabStore, err := storage.NewTabStore(dir)
	require.NoError(t, err)

	m := New("alice", &echoGenerator{}, local, tabStore, rand.New(rand.NewSource(1)), nil)
	m.CreateTab()
	second := m.CreateTab()
	m.CreateTab()
	require.NoError(t, m.CloseTab(context.Background(), second.ID))

	// Remaining tabs are "Chat 1" and "Chat 3"; the next tab must not
	// mint a second "Chat 3".
	restored := New("alice", &echoGenerator{}, local, tabStore, rand.New(rand.NewSource(2)), nil)
	restored.Restore(context.Background())

	tab := restored.CreateTab()
	require.Equal(t, "Chat 4", tab.Name)
}

func TestSearchMessagesAcrossTabs(t *testing.T) {
	m := newManager(t, nil)
	first := m.CreateTab()
	_, err := m.SendMessage(context.Background(), "I could not sleep last night")
	require.NoError(t, err)

	m.CreateTab()
	_, err = m.SendMessage(context.Background(), "work has been stressful")
	require.NoError(t, err)
	require.NoError(t, m.SwitchTab(first.ID))

	results, err := m.SearchMessages(context.Background(), "SLEEP")
	require.NoError(t, err)
	require.Len(t, results, 2, "user message plus the echoed reply")
	for _, msg := range results {
		require.Contains(t, strings.ToLower(msg.Text), "sleep")
	}
}

func TestRestoreWithNothingSavedCreatesFreshTab(t *testing.T) {
	m := newManager(t, nil)
	m.Restore(context.Background())

	tabs := m.Tabs()
	require.Len(t, tabs, 1)
	require.Len(t, tabs[0].Messages, 1, "fresh tab carries a greeting")
	require.Equal(t, chat.SenderBot, tabs[0].Messages[0].Sender)
}
