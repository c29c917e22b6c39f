// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package crisis detects self-harm language in user messages and
// short-circuits the response pipeline with a fixed safety reply.
//
// The check is pure string matching: it is deterministic, works offline,
// and runs before any network-dependent path. When it matches, no remote
// call may be made for that turn.
package crisis

import (
	"math/rand"
	"strings"
	"time"
)

// phrases is the fixed set of self-harm indicators. Matching is
// case-insensitive substring containment.
var phrases = []string{
	"suicidal",
	"suicide",
	"kill myself",
	"end my life",
	"don't want to live",
	"want to die",
}

// responses is the fixed pool of crisis-resource replies. One is chosen
// uniformly at random per triggered turn.
var responses = []string{
	"I'm really concerned about what you're sharing. If you're having thoughts of harming yourself, please reach out to a crisis helpline immediately. In the US, you can call or text 988 for the Suicide and Crisis Lifeline, available 24/7. Would you like me to provide more resources?",
	"I'm taking what you're saying very seriously. Please connect with a mental health professional right away. The National Suicide Prevention Lifeline (988) has trained counselors available 24/7 who care and want to help. Your life matters.",
	"I'm concerned about you and what you're going through. If you're in crisis, please call your local emergency number (such as 911 in the US) or go to your nearest emergency room. Would it help to talk about what's making you feel this way?",
}

// =============================================================================
// FILTER
// =============================================================================

// Filter checks messages against the crisis phrase list. The random source
// is injectable so tests can pin response selection.
type Filter struct {
	rng *rand.Rand
}

// NewFilter creates a filter with its own seeded random source.
func NewFilter() *Filter {
	return NewFilterWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewFilterWithRand creates a filter using the provided random source.
func NewFilterWithRand(rng *rand.Rand) *Filter {
	return &Filter{rng: rng}
}

// Check tests message against the crisis phrase list. On a match it returns
// one of the fixed crisis responses and true; otherwise ("", false) and the
// pipeline proceeds normally. Check cannot fail.
func (f *Filter) Check(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return responses[f.rng.Intn(len(responses))], true
		}
	}
	return "", false
}

// Responses returns a copy of the fixed crisis response pool.
func Responses() []string {
	out := make([]string, len(responses))
	copy(out, responses)
	return out
}

// Phrases returns a copy of the crisis phrase list.
func Phrases() []string {
	out := make([]string, len(phrases))
	copy(out, phrases)
	return out
}
