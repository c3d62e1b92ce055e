// Package resume turns extracted résumé text into a stored candidate summary:
// LLM summarization, candidate-name derivation and candidate-id generation.
package resume

import (
	"encoding/json"
	"strings"
)

// Summary is the document stored for a candidate. It is either a StructuredSummary
// (the model returned a JSON object) or a RawTextSummary.
type Summary interface {
	// Text is the exact string stored in the vector collection.
	Text() string
	isSummary()
}

// StructuredSummary is a summary that decoded as a JSON object.
type StructuredSummary struct {
	Fields map[string]any
	raw    string
}

// Text returns the original JSON text.
func (s StructuredSummary) Text() string { return s.raw }

// Name returns the trimmed "name" field when it is a non-empty string.
func (s StructuredSummary) Name() string {
	name, _ := s.Fields["name"].(string)

	return strings.TrimSpace(name)
}

func (StructuredSummary) isSummary() {}

// RawTextSummary is any summary that is not a JSON object, usually the plain-text template.
type RawTextSummary struct {
	Body string
}

// Text returns the body.
func (s RawTextSummary) Text() string { return s.Body }

func (RawTextSummary) isSummary() {}

// ParseSummary decodes s as a JSON object and falls back to opaque text.
// Arrays, scalars and invalid JSON are all raw text.
func ParseSummary(s string) Summary {
	var fields map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &fields); err == nil && fields != nil {
		return StructuredSummary{Fields: fields, raw: s}
	}

	return RawTextSummary{Body: s}
}

// Preview returns at most n runes of s.
func Preview(s string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
