// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the HTTP client for the remote
// text-generation endpoint (HuggingFace inference API shape).
//
// The client makes exactly one attempt per call, bounded by a context
// timeout. Every failure mode maps to a typed error so the generator can
// degrade to the offline responder; nothing here is retried.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/companion-tui/internal/util"
)

// Configuration constants for the inference API.
const (
	// DefaultBaseURL is the hosted inference endpoint for the default model.
	DefaultBaseURL = "https://api-inference.huggingface.co/models/google/gemma-2b-it"

	// DefaultTimeout bounds a single generation request.
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize caps the response body read to keep a misbehaving
	// endpoint from exhausting memory.
	MaxResponseSize = 1 * 1024 * 1024
)

// Sampling defaults sent with every request.
const (
	DefaultMaxNewTokens = 300
	DefaultTemperature  = 0.7
	DefaultTopP         = 0.9
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates no API key is set. This is a recognized,
	// handled condition, not a startup failure.
	ErrNotConfigured = errors.New("provider API key not configured")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("generation request timed out")

	// ErrEmptyResponse indicates a 2xx response with no usable body.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrBadPayload indicates the body matched none of the accepted shapes.
	ErrBadPayload = errors.New("unrecognized provider response shape")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d: %s", e.Code, e.Body)
}

// =============================================================================
// CLIENT
// =============================================================================

// Config holds provider client settings.
type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	MaxNewTokens int
	Temperature  float64
	TopP         float64
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		MaxNewTokens: DefaultMaxNewTokens,
		Temperature:  DefaultTemperature,
		TopP:         DefaultTopP,
	}
}

// Client talks to the text-generation endpoint. It is safe for concurrent
// use; the API key may be swapped at runtime by the config watcher.
type Client struct {
	mu         sync.RWMutex
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	params     parameters
	timeout    time.Duration
}

// NewClient creates a client from cfg, filling zero values with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxNewTokens == 0 {
		cfg.MaxNewTokens = DefaultMaxNewTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.TopP == 0 {
		cfg.TopP = DefaultTopP
	}

	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		// One request per second, matching the hosted endpoint's free-tier
		// rate limit.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		params: parameters{
			MaxNewTokens:   cfg.MaxNewTokens,
			Temperature:    cfg.Temperature,
			TopP:           cfg.TopP,
			DoSample:       true,
			ReturnFullText: false,
		},
		timeout: cfg.Timeout,
	}
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// SetAPIKey replaces the API key at runtime (config hot-reload).
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = strings.TrimSpace(key)
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// request is the inference API request body.
type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type parameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate sends prompt to the endpoint and returns the raw generated text.
// The call is bounded by the client timeout and never retried.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	c.mu.RLock()
	apiKey := c.apiKey
	c.mu.RUnlock()

	if apiKey == "" {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", ErrTimeout
	}

	body, err := json.Marshal(request{
		Inputs:     strings.TrimSpace(prompt),
		Parameters: c.params,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Body: snippet(data)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyResponse
	}

	return ParseGenerated(data)
}

// snippet trims an error body for inclusion in an error message.
func snippet(data []byte) string {
	return util.TruncateString(strings.TrimSpace(string(data)), 200)
}
