package orchestrator

import (
	"context"
	"strings"

	"github.com/sobiamehak/humanoid-robotic-book/internal/llm"
	"github.com/sobiamehak/humanoid-robotic-book/internal/retriever"
)

// Event types emitted by AskStream, in order: at most one sources event,
// then zero or more chunk events, then exactly one done event.
const (
	EventSources = "sources"
	EventChunk   = "chunk"
	EventDone    = "done"
)

// StreamEvent is one element of a streamed reply.
type StreamEvent struct {
	Type    string             `json:"type"`
	Content string             `json:"content,omitempty"`
	Sources []retriever.Source `json:"sources,omitempty"`
}

// AskStream answers a query and delivers the reply incrementally: sources
// first, then the answer one word at a time, then a done sentinel. The first
// word is emitted bare and every later word carries its leading space, so
// concatenating chunk contents reconstructs the answer exactly.
//
// The answer text is fully generated before the first chunk is emitted. The
// fallback chain has to inspect each provider's complete reply for failure
// signatures, and a reply cannot be unsent once streaming to the caller has
// begun.
func (o *Orchestrator) AskStream(ctx context.Context, sessionID, query string, emit func(StreamEvent)) {
	answer := o.answer(ctx, sessionID, query, o.generateStream)
	o.memory.Append(sessionID, "user", query)
	o.memory.Append(sessionID, "assistant", answer.Text)

	if len(answer.Sources) > 0 {
		emit(StreamEvent{Type: EventSources, Sources: answer.Sources})
	}
	for i, word := range strings.Fields(answer.Text) {
		if ctx.Err() != nil {
			break
		}
		chunk := word
		if i > 0 {
			chunk = " " + word
		}
		emit(StreamEvent{Type: EventChunk, Content: chunk})
	}
	emit(StreamEvent{Type: EventDone})
}

// generateStream calls one provider's streaming endpoint and accumulates
// the fragments into the full reply, with the per-provider timeout applied.
func (o *Orchestrator) generateStream(ctx context.Context, p llm.Provider, query, contextText string) (string, error) {
	pctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var b strings.Builder
	if err := p.GenerateStream(pctx, query, contextText, func(fragment string) {
		b.WriteString(fragment)
	}); err != nil {
		return "", err
	}
	return b.String(), nil
}
