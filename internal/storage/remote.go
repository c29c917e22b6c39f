// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jeranaias/companion-tui/internal/chat"
)

// Remote store timing. Every operation is bounded; the probe result is
// cached briefly so a burst of operations costs one health check.
const (
	// remoteTimeout bounds each document-store operation.
	remoteTimeout = 5 * time.Second

	// probeTimeout bounds the reachability check itself.
	probeTimeout = 2 * time.Second

	// probeCacheTTL is how long a probe result stays valid.
	probeCacheTTL = 10 * time.Second
)

// =============================================================================
// REMOTE STORE
// =============================================================================

// RemoteStore talks to the external document store's message API:
//
//	GET    {base}/health
//	GET    {base}/users/{userID}/messages
//	POST   {base}/users/{userID}/messages
//	DELETE {base}/users/{userID}/messages/{messageID}
type RemoteStore struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	lastProbe time.Time
	reachable bool
}

// NewRemoteStore creates a remote store client for baseURL. An empty
// baseURL yields a client that always reports unreachable, which keeps the
// fallback chain purely local.
func NewRemoteStore(baseURL string) *RemoteStore {
	return &RemoteStore{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: remoteTimeout,
		},
	}
}

// Reachable reports whether the remote store answered a recent health
// probe. Results are cached for probeCacheTTL.
func (s *RemoteStore) Reachable(ctx context.Context) bool {
	if s.baseURL == "" {
		return false
	}

	s.mu.Lock()
	if time.Since(s.lastProbe) < probeCacheTTL {
		reachable := s.reachable
		s.mu.Unlock()
		return reachable
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	reachable := false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err == nil {
		resp, err := s.httpClient.Do(req)
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			reachable = resp.StatusCode == http.StatusOK
		}
	}

	s.mu.Lock()
	s.lastProbe = time.Now()
	s.reachable = reachable
	s.mu.Unlock()
	return reachable
}

// Save persists a message remotely and returns the stored ID.
func (s *RemoteStore) Save(ctx context.Context, userID string, msg chat.Message) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", &StoreError{Message: "failed to marshal message", Cause: err}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, s.messagesURL(userID), body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		result.ID = msg.ID
	}
	return result.ID, nil
}

// List returns a user's remote messages ordered by timestamp.
func (s *RemoteStore) List(ctx context.Context, userID string) ([]chat.Message, error) {
	var messages []chat.Message
	if err := s.do(ctx, http.MethodGet, s.messagesURL(userID), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Search filters the user's remote messages by text content. The document
// store has no query endpoint, so matching happens client-side.
func (s *RemoteStore) Search(ctx context.Context, userID, query string) ([]chat.Message, error) {
	messages, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filterByQuery(messages, query), nil
}

// Delete removes one remote message.
func (s *RemoteStore) Delete(ctx context.Context, userID, messageID string) error {
	u := s.messagesURL(userID) + "/" + url.PathEscape(messageID)
	err := s.do(ctx, http.MethodDelete, u, nil, nil)
	if se, ok := err.(*StoreError); ok && se.statusCode == http.StatusNotFound {
		return ErrMessageNotFound
	}
	return err
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

func (s *RemoteStore) messagesURL(userID string) string {
	return s.baseURL + "/users/" + url.PathEscape(userID) + "/messages"
}

func (s *RemoteStore) do(ctx context.Context, method, url string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &StoreError{Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &StoreError{Message: "remote store request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StoreError{
			Message:    fmt.Sprintf("remote store returned HTTP %d", resp.StatusCode),
			statusCode: resp.StatusCode,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &StoreError{Message: "failed to decode remote response", Cause: err}
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return nil
}
