// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"encoding/json"
	"strings"
)

// generatedText is the object shape some endpoints wrap results in.
type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

// ParseGenerated extracts the generated text from a provider response body.
// The endpoint returns one of several shapes depending on model and
// deployment; they are resolved here, in one place, in a fixed order with
// the first matching shape winning:
//
//  1. a bare JSON string
//  2. {"generated_text": "..."}
//  3. an array whose first element is either of the above
//
// A body that matches none of the shapes, or matches with empty text,
// yields ErrBadPayload.
func ParseGenerated(data []byte) (string, error) {
	// Shape 1: bare string.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return nonEmpty(s)
	}

	// Shape 2: {"generated_text": ...}.
	var obj generatedText
	if err := json.Unmarshal(data, &obj); err == nil && obj.GeneratedText != "" {
		return nonEmpty(obj.GeneratedText)
	}

	// Shape 3: array of either.
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		first := arr[0]
		if err := json.Unmarshal(first, &s); err == nil {
			return nonEmpty(s)
		}
		var elem generatedText
		if err := json.Unmarshal(first, &elem); err == nil && elem.GeneratedText != "" {
			return nonEmpty(elem.GeneratedText)
		}
	}

	return "", ErrBadPayload
}

func nonEmpty(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrBadPayload
	}
	return s, nil
}
