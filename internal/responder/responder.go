// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package responder is the offline keyword-based responder used when the
// remote provider is unavailable or fails.
//
// Classification checks greeting patterns first, then scans per-category
// keyword lists in a fixed order with first match winning. It is never the
// primary path, so the quality bar is "reasonable, not wrong".
package responder

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Category is one of the fixed response categories.
type Category string

const (
	CategoryGreeting   Category = "greeting"
	CategoryAnxiety    Category = "anxiety"
	CategoryDepression Category = "depression"
	CategoryStress     Category = "stress"
	CategorySleep      Category = "sleep"
	CategoryGratitude  Category = "gratitude"
	CategoryGeneral    Category = "general"
)

// categoryOrder fixes the scan order so classification is deterministic.
var categoryOrder = []Category{
	CategoryAnxiety,
	CategoryDepression,
	CategoryStress,
	CategorySleep,
	CategoryGratitude,
}

// greetingPatterns match messages that open with a salutation.
var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^hi\b`),
	regexp.MustCompile(`(?i)^hello\b`),
	regexp.MustCompile(`(?i)^hey\b`),
	regexp.MustCompile(`(?i)^good morning\b`),
	regexp.MustCompile(`(?i)^good afternoon\b`),
	regexp.MustCompile(`(?i)^good evening\b`),
	regexp.MustCompile(`(?i)^what's up\b`),
	regexp.MustCompile(`(?i)^howdy\b`),
	regexp.MustCompile(`(?i)^greetings\b`),
}

// keywords maps each category to its trigger words. Matching is
// case-insensitive substring containment.
var keywords = map[Category][]string{
	CategoryAnxiety:    {"anxious", "anxiety", "nervous", "worry", "panic", "stressed", "tension", "uneasy", "fear", "dread", "apprehension"},
	CategoryDepression: {"depressed", "depression", "sad", "down", "hopeless", "empty", "blue", "unhappy", "miserable", "worthless", "numb", "lonely"},
	CategoryStress:     {"stress", "stressed", "pressure", "overwhelmed", "burnout", "burden", "strain", "overload", "exhausted", "tense"},
	CategorySleep:      {"sleep", "insomnia", "tired", "exhausted", "restless", "fatigue", "bed", "wake", "nightmare", "dreams", "rest"},
	CategoryGratitude:  {"grateful", "gratitude", "thankful", "appreciate", "blessed", "fortunate", "appreciation", "thanks"},
}

// responses holds the canned reply pool per category.
var responses = map[Category][]string{
	CategoryGreeting: {
		"Hello! I'm here as your supportive companion. How are you feeling today?",
		"Welcome. I'm here to listen and support you. How has your day been going?",
		"Hi there. I'm here as a space for you to express yourself. What's on your mind today?",
		"Hello. Thank you for reaching out. How are you feeling in this moment?",
	},
	CategoryAnxiety: {
		"It sounds like you're experiencing some anxiety. Deep breathing can help regulate your nervous system - perhaps try breathing in for 4 counts, hold for 7, and exhale for 8 counts. Would you like to explore what might be triggering these feelings?",
		"Anxiety can be really challenging. Many find mindfulness practices helpful. Have you discovered any techniques that have worked for you in the past?",
		"When anxiety arises, grounding exercises can help bring you back to the present moment. Perhaps try noticing 5 things you can see, 4 you can touch, 3 you can hear, 2 you can smell, and 1 you can taste. Would you like to talk more about what's causing these feelings?",
		"I hear that you're feeling anxious. Remember that these feelings, while difficult, are temporary and will pass. Would it help to explore what might be contributing to this anxiety?",
	},
	CategoryDepression: {
		"I'm sorry you're feeling low. Depression can make even small tasks feel overwhelming. Sometimes taking one tiny step, like getting out of bed or taking a short walk, can be a meaningful victory. What's one small thing that might bring you a moment of peace today?",
		"When we're experiencing depression, everything can feel overwhelming. Could we identify one small, manageable action that might help you feel a sense of accomplishment today?",
		"It takes courage to acknowledge these feelings. Have you been able to speak with a mental health professional about what you're experiencing? Professional support can be very valuable during these times.",
		"Depression can feel very isolating. Sometimes connecting with others, even briefly, can provide some relief. Is there someone supportive you might reach out to, even with just a short message?",
	},
	CategoryStress: {
		"It sounds like you're under significant stress. Taking even 5 minutes for yourself to do something calming can help reset your nervous system. What small self-care activity might you be able to incorporate today?",
		"When we're stressed, our bodies physically respond with tension. Progressive muscle relaxation can help - perhaps try tensing and then relaxing each muscle group, starting from your toes and working up. Would you like to explore what's contributing to your stress?",
		"Journaling can be a helpful way to process stressful feelings. Writing down what's on your mind might help externalize some of those thoughts. Would that be something you'd be willing to try?",
		"It sounds like you have a lot on your plate right now. Sometimes reviewing our commitments and identifying what can be delegated, postponed, or eliminated can help create some breathing room. Would it help to talk through your current responsibilities?",
	},
	CategorySleep: {
		"Sleep difficulties can be really frustrating. Establishing a consistent bedtime routine can help signal to your body that it's time to wind down. What might a calming pre-sleep routine look like for you?",
		"Blue light from screens can interfere with your body's natural sleep signals. If possible, try avoiding phones and computers for an hour before bed. Have you found any particular activities helpful for winding down?",
		"Many people find that calming sounds or guided sleep meditations help with falling asleep. Would you be open to exploring some sleep-focused audio resources?",
		"Racing thoughts at bedtime can make sleep elusive. Keeping a notepad by your bed to jot down thoughts can sometimes help clear your mind. Would you like to discuss other strategies for managing nighttime rumination?",
	},
	CategoryGratitude: {
		"Practicing gratitude can be a powerful tool for shifting perspective. Even in difficult times, can you identify one thing, however small, that you're grateful for today?",
		"Noticing positive moments, however small, can gradually shift our outlook over time. That's a wonderful practice to cultivate.",
		"Research shows that regularly acknowledging things we're grateful for can positively impact our mental health. Thank you for sharing that reflection.",
		"Gratitude practice is like a muscle that gets stronger with use. I appreciate you bringing that positive awareness to our conversation.",
	},
	CategoryGeneral: {
		"I'm here to listen and support you. Would you feel comfortable sharing more about what you're experiencing?",
		"Thank you for sharing that with me. How have you been managing these feelings?",
		"I appreciate your openness. What do you think might help you feel more supported right now?",
		"That sounds challenging. Have you found any strategies helpful in similar situations before?",
		"I'm listening. Sometimes just expressing our thoughts can help us process them more effectively.",
		"Your feelings are valid. Would it help to explore this topic a bit further?",
		"I'm here to support you. What would be most helpful for you in this moment?",
		"It takes courage to discuss these things. Is there a specific aspect you'd like to focus on?",
	},
}

// =============================================================================
// RESPONDER
// =============================================================================

// Responder classifies messages into categories and picks canned replies.
// The random source is injectable so tests can pin selection.
type Responder struct {
	rng *rand.Rand
}

// New creates a responder with its own seeded random source.
func New() *Responder {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates a responder using the provided random source.
func NewWithRand(rng *rand.Rand) *Responder {
	return &Responder{rng: rng}
}

// Classify returns the category for a message. It is a pure function of the
// message text: greetings first, then the keyword lists in fixed order with
// first match winning, defaulting to general.
func (r *Responder) Classify(message string) Category {
	lower := strings.ToLower(message)

	for _, pattern := range greetingPatterns {
		if pattern.MatchString(lower) {
			return CategoryGreeting
		}
	}

	for _, cat := range categoryOrder {
		for _, word := range keywords[cat] {
			if strings.Contains(lower, word) {
				return cat
			}
		}
	}

	return CategoryGeneral
}

// Respond picks a uniformly random canned reply for the category. Unknown
// categories fall back to the general pool.
func (r *Responder) Respond(category Category) string {
	pool, ok := responses[category]
	if !ok || len(pool) == 0 {
		pool = responses[CategoryGeneral]
	}
	return pool[r.rng.Intn(len(pool))]
}

// Reply classifies message and returns a canned response for it.
func (r *Responder) Reply(message string) string {
	return r.Respond(r.Classify(message))
}

// Responses returns a copy of the canned reply pool for a category.
func Responses(category Category) []string {
	pool := responses[category]
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}
