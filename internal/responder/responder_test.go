// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package responder

import (
	"math/rand"
	"testing"
)

func TestClassify(t *testing.T) {
	r := New()

	tests := []struct {
		name    string
		message string
		want    Category
	}{
		// Greetings match only at the start of the message.
		{"hi", "hi", CategoryGreeting},
		{"hello with tail", "hello there", CategoryGreeting},
		{"hey", "hey, how does this work?", CategoryGreeting},
		{"good morning", "good morning!", CategoryGreeting},
		{"whats up", "what's up", CategoryGreeting},
		{"howdy", "howdy partner", CategoryGreeting},
		{"greetings", "greetings friend", CategoryGreeting},
		{"hi mid-sentence", "I said hi to my neighbor and felt anxious", CategoryAnxiety},
		{"highway is not hi", "the highway was jammed", CategoryGeneral},

		// Keyword categories.
		{"anxious", "I feel anxious about tomorrow", CategoryAnxiety},
		{"panic", "I had a panic attack", CategoryAnxiety},
		{"worry", "I worry constantly", CategoryAnxiety},
		{"sad", "I have been so sad lately", CategoryDepression},
		{"hopeless", "everything feels hopeless", CategoryDepression},
		{"stress", "work stress is crushing me", CategoryStress},
		{"overwhelmed", "I am overwhelmed by deadlines", CategoryStress},
		{"sleep", "I can't sleep at night", CategorySleep},
		{"insomnia", "my insomnia is back", CategorySleep},
		{"thanks", "thanks for listening", CategoryGratitude},
		{"thankful", "feeling thankful today", CategoryGratitude},
		{"bare thank you", "thank you", CategoryGeneral},
		{"grateful", "I am grateful for today", CategoryGratitude},

		// Anxiety scans before depression when both appear.
		{"anxious and sad", "I feel anxious and sad", CategoryAnxiety},

		// Case insensitive.
		{"uppercase keyword", "I FEEL ANXIOUS", CategoryAnxiety},

		// Nothing matched.
		{"empty", "", CategoryGeneral},
		{"plain statement", "tell me about the weather", CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Classify(tt.message); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	r := New()
	for i := 0; i < 5; i++ {
		if got := r.Classify("I feel anxious"); got != CategoryAnxiety {
			t.Fatalf("iteration %d: Classify changed its answer: %q", i, got)
		}
	}
}

func TestRespondDrawsFromCategoryPool(t *testing.T) {
	r := NewWithRand(rand.New(rand.NewSource(7)))

	for _, cat := range []Category{
		CategoryGreeting, CategoryAnxiety, CategoryDepression,
		CategoryStress, CategorySleep, CategoryGratitude, CategoryGeneral,
	} {
		pool := Responses(cat)
		if len(pool) == 0 {
			t.Fatalf("category %q has no responses", cat)
		}
		resp := r.Respond(cat)
		if !contains(pool, resp) {
			t.Errorf("Respond(%q) = %q, not in the category pool", cat, resp)
		}
	}
}

func TestRespondUnknownCategoryFallsBackToGeneral(t *testing.T) {
	r := NewWithRand(rand.New(rand.NewSource(7)))
	resp := r.Respond(Category("nonsense"))
	if !contains(Responses(CategoryGeneral), resp) {
		t.Errorf("Respond(unknown) = %q, want a general response", resp)
	}
}

func TestReply(t *testing.T) {
	r := NewWithRand(rand.New(rand.NewSource(3)))

	resp := r.Reply("I can't sleep")
	if !contains(Responses(CategorySleep), resp) {
		t.Errorf("Reply for sleep message = %q, not in the sleep pool", resp)
	}
}

func contains(pool []string, s string) bool {
	for _, p := range pool {
		if p == s {
			return true
		}
	}
	return false
}
