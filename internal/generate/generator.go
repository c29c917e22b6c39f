// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package generate orchestrates how a user message becomes a reply.
//
// Pipeline order: crisis filter (terminal on match), then an ordered chain
// of generation strategies - remote provider first, offline responder last.
// Generate never returns an error: every failure degrades to a
// lower-quality but always-available response.
package generate

import (
	"context"
	"log"

	"github.com/jeranaias/companion-tui/internal/chat"
)

// genericReply is substituted when cleaning strips a provider response down
// to nothing.
const genericReply = "I'm here to help with your wellness journey. How can I assist you today?"

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// TextProvider is the remote generation endpoint.
type TextProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	IsConfigured() bool
}

// CrisisFilter short-circuits the pipeline on self-harm language.
type CrisisFilter interface {
	Check(message string) (string, bool)
}

// OfflineResponder produces the canned fallback reply.
type OfflineResponder interface {
	Reply(message string) string
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator turns conversation history plus a new user message into a reply.
type Generator struct {
	crisis   CrisisFilter
	provider TextProvider
	offline  OfflineResponder
	persona  string
	logger   *log.Logger
}

// New creates a generator. A nil logger disables logging.
func New(filter CrisisFilter, provider TextProvider, offline OfflineResponder, logger *log.Logger) *Generator {
	return &Generator{
		crisis:   filter,
		provider: provider,
		offline:  offline,
		persona:  personaPrompt,
		logger:   logger,
	}
}

// strategy is one step in the generation fallback chain. A strategy either
// produces the final reply or returns an error to hand off to the next one.
type strategy struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// Generate produces a reply for message given the active tab's history.
// It always returns a non-empty string and makes at most one provider
// attempt per call.
func (g *Generator) Generate(ctx context.Context, history []chat.Turn, message string) string {
	// Safety short-circuit before anything network-dependent.
	if reply, ok := g.crisis.Check(message); ok {
		return reply
	}

	turns := make([]chat.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, chat.Turn{Role: chat.RoleUser, Content: message})
	prompt := BuildPrompt(g.persona, turns)

	chain := []strategy{
		{name: "provider", run: func(ctx context.Context) (string, error) {
			raw, err := g.provider.Generate(ctx, prompt)
			if err != nil {
				return "", err
			}
			cleaned := CleanResponse(raw)
			if cleaned == "" {
				return genericReply, nil
			}
			return cleaned, nil
		}},
		{name: "offline", run: func(ctx context.Context) (string, error) {
			return g.offline.Reply(message), nil
		}},
	}

	for _, s := range chain {
		reply, err := s.run(ctx)
		if err == nil {
			return reply
		}
		g.logf("%s generation failed, trying next: %v", s.name, err)
	}

	// Unreachable while the offline strategy is infallible; kept so the
	// contract holds if the chain ever changes.
	return genericReply
}

func (g *Generator) logf(format string, args ...any) {
	if g.logger != nil {
		g.logger.Printf(format, args...)
	}
}
