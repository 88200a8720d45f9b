// Package jsonutil recovers JSON payloads from model output that may be
// wrapped in markdown code fences or surrounding prose.
package jsonutil

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no candidate in the content decodes as JSON.
var ErrNoJSON = errors.New("no JSON value found")

// ErrEmpty is returned for blank content.
var ErrEmpty = errors.New("empty content")

// Extract returns the first JSON value recoverable from content. Candidates are
// tried in order: the content as-is, the content with code fences stripped, and
// the span between the first opening brace/bracket and its last matching
// closer. The returned bytes are the candidate text, not a re-encoding, so
// number formatting and key order survive.
func Extract(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmpty
	}

	candidates := []string{content}
	if stripped := StripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := Candidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, ErrNoJSON
}

// StripCodeFences removes a leading ``` fence line (with optional language tag)
// and a trailing ``` line. Returns "" when content is not fenced.
func StripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Candidate returns the substring from the first '{' or '[' to the last
// matching closer, or "" if there is none.
func Candidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start = objectStart
		closeChar = "}"
	case arrayStart >= 0:
		start = arrayStart
		closeChar = "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}
