// Package responder holds the canned reply texts and the local extractive
// responder, the last tier of the generation chain. It needs no network and
// no model, so an answer grounded in retrieved text is always available even
// when every provider is down.
package responder

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sobiamehak/humanoid-robotic-book/internal/classifier"
)

const (
	// GreetingMessage replies to bare greetings without touching the index.
	GreetingMessage = "Hello! I'm your assistant for the Physical AI & Humanoid Robotics textbook. Ask me anything about the book's content."
	// OffTopicMessage replies to queries outside the textbook's scope.
	OffTopicMessage = "I can only answer questions about the Physical AI & Humanoid Robotics textbook. Please ask questions related to the book content."
	// NoInfoMessage replies when retrieval found nothing usable.
	NoInfoMessage = "I couldn't find relevant information in the book to answer your question."

	preamble     = "Based on the book content:\n\n"
	maxSentences = 3
	truncateAt   = 500
)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"with": true, "that": true, "this": true, "from": true, "what": true,
	"how": true, "why": true, "when": true, "where": true, "which": true,
	"who": true, "can": true, "does": true, "about": true, "into": true,
	"have": true, "has": true, "you": true, "your": true, "not": true,
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordSplit     = regexp.MustCompile(`\W+`)
)

// keywords extracts the content-bearing query terms: lowercase, longer than
// two characters, not a stop word.
func keywords(query string) []string {
	var out []string
	for _, tok := range wordSplit.Split(strings.ToLower(query), -1) {
		if len(tok) > 2 && !stopWords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// Extract builds an answer from contextText by scoring its sentences against
// the query keywords and returning the best three, in relevance order. When
// no sentence matches, the leading portion of the context is returned
// instead, so the caller still gets grounded text rather than nothing.
func Extract(query, contextText string) string {
	contextText = strings.TrimSpace(contextText)
	if contextText == "" {
		if classifier.Classify(query).IsOffTopic {
			return OffTopicMessage
		}
		return NoInfoMessage
	}

	terms := keywords(query)

	type scored struct {
		text  string
		count int
	}
	var candidates []scored
	for _, raw := range sentenceSplit.Split(contextText, -1) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}
		lower := strings.ToLower(sentence)
		count := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				count++
			}
		}
		if count > 0 {
			candidates = append(candidates, scored{text: sentence, count: count})
		}
	}

	if len(candidates) == 0 {
		if len(contextText) > truncateAt {
			return preamble + contextText[:truncateAt] + "..."
		}
		return preamble + contextText
	}

	// Stable sort keeps document order among equally scored sentences.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].count > candidates[j].count
	})
	if len(candidates) > maxSentences {
		candidates = candidates[:maxSentences]
	}

	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = c.text + "."
	}
	return preamble + strings.Join(parts, "\n")
}
