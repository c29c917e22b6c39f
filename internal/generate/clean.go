// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"regexp"
	"strings"
)

// Patterns for instruction and persona text the provider sometimes echoes
// back into the generated reply.
var (
	adviceEchoRe   = regexp.MustCompile(`(?i)^respond with helpful, empathetic advice\.?\s*`)
	personaEchoRe  = regexp.MustCompile(`(?i)^you are a professional therapeutic ai assistant\.?\s*`)
	assistantCueRe = regexp.MustCompile(`(?i)^assistant:\s*`)
	roleLeakRe     = regexp.MustCompile(`(?i)you are (?:a|an) (?:professional|experienced|empathetic|therapeutic).*?(?:\.|$)`)
	approachLeakRe = regexp.MustCompile(`(?is)your approach is:.*?professional presence\.`)
	rulesLeakRe    = regexp.MustCompile(`(?is)in your responses:.*?compassionate presence\.`)

	// A hallucinated next turn; everything from the marker on is dropped.
	nextTurnRe = regexp.MustCompile(`\n(?:User|Human):`)
)

// CleanResponse strips instruction echoes, persona leakage, and any
// hallucinated continuation of the conversation from generated text, then
// trims whitespace. Returns "" when nothing usable remains; the caller
// substitutes the fixed generic reply.
func CleanResponse(text string) string {
	text = strings.TrimSpace(adviceEchoRe.ReplaceAllString(text, ""))
	text = strings.TrimSpace(personaEchoRe.ReplaceAllString(text, ""))
	text = strings.TrimSpace(assistantCueRe.ReplaceAllString(text, ""))
	text = strings.TrimSpace(roleLeakRe.ReplaceAllString(text, ""))
	text = strings.TrimSpace(approachLeakRe.ReplaceAllString(text, ""))
	text = strings.TrimSpace(rulesLeakRe.ReplaceAllString(text, ""))

	if loc := nextTurnRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	return strings.TrimSpace(text)
}

// GenericReply is the fixed substitute used when cleaning yields nothing.
func GenericReply() string {
	return genericReply
}
