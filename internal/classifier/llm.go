package classifier

import (
	"context"
	"log/slog"
	"strings"
)

// relevancePrompt asks for a one-word verdict so parsing stays trivial.
const relevancePrompt = "You are a relevance filter for a chatbot about the Physical AI & Humanoid Robotics textbook. " +
	"Decide whether the question below is about humanoid robotics, physical AI, or the book's content. " +
	"Reply with exactly one word: RELEVANT or IRRELEVANT.\n\nQuestion: "

// Generator is the slice of the generation capability the checker needs.
type Generator interface {
	Generate(ctx context.Context, query, contextText string) (string, error)
}

// Checker layers an LLM relevance verdict on top of the keyword gate. When
// the model is unreachable or its reply cannot be parsed, the keyword
// result stands, so enabling the checker never makes the gate less
// available.
type Checker struct {
	gen    Generator
	logger *slog.Logger
}

// NewChecker creates a Checker. gen may be nil, in which case IsRelevant
// is purely keyword-based.
func NewChecker(gen Generator, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{gen: gen, logger: logger}
}

// IsRelevant reports whether the query should proceed to retrieval.
// Greetings are never sent to the model; they are handled upstream.
func (c *Checker) IsRelevant(ctx context.Context, query string) bool {
	keyword := !Classify(query).IsOffTopic
	if c == nil || c.gen == nil {
		return keyword
	}

	reply, err := c.gen.Generate(ctx, relevancePrompt+query, "")
	if err != nil {
		c.logger.Warn("Relevance check failed, keeping keyword verdict", "error", err)
		return keyword
	}

	verdict := strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.Contains(verdict, "IRRELEVANT"):
		return false
	case strings.Contains(verdict, "RELEVANT"):
		return true
	default:
		c.logger.Warn("Unparseable relevance verdict, keeping keyword verdict", "verdict", verdict)
		return keyword
	}
}
