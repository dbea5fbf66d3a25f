// Package llm provides chat-completion providers for answer generation.
// The original system grew one wrapper class per vendor; here a single
// implementation is parameterised by endpoint and model, and variants are
// selected by which API keys the deployment configures.
package llm

import (
	"context"
	"strings"
)

// SystemPrompt constrains every generation to the retrieved context.
const SystemPrompt = "You are an AI assistant for the Physical AI & Humanoid Robotics textbook. " +
	"ONLY answer questions based on the provided context from the textbook. " +
	"If a question is not related to humanoid robotics, physical AI, or the book content, respond with: " +
	"'I can only answer questions about the Physical AI & Humanoid Robotics textbook. Please ask questions related to the book content.' " +
	"Be helpful but stay within the scope of the textbook."

// Provider is the capability set a generation backend must offer.
type Provider interface {
	// Name identifies the provider in logs and failover decisions.
	Name() string
	// Generate produces an answer for the query, constrained to contextText.
	Generate(ctx context.Context, query, contextText string) (string, error)
	// GenerateStream produces the answer incrementally, calling emit for
	// each text fragment in order. Returns after the stream completes.
	GenerateStream(ctx context.Context, query, contextText string, emit func(fragment string)) error
	// CheckConnection reports whether the provider looks usable.
	CheckConnection(ctx context.Context) error
}

// errorSignatures are canned failure phrases a provider may return inside a
// 200 response. A reply matching one is treated as a failed generation so
// the fallback chain advances instead of surfacing it.
var errorSignatures = []string{
	"sorry, i encountered an error",
	"sorry, the ai service is not available",
	"i couldn't generate a response",
}

// IsErrorSignature reports whether reply text counts as a failed
// generation: empty output or a known failure phrase.
func IsErrorSignature(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, sig := range errorSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// userPrompt prepends the retrieved context to the question the way the
// providers expect it.
func userPrompt(query, contextText string) string {
	if contextText == "" {
		return query
	}
	return "Context: " + contextText + "\n\nQuestion: " + query
}
