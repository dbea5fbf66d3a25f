// Package orchestrator runs a query through the full answering pipeline:
// classification, retrieval, the provider fallback chain, and the local
// extractive responder as the terminal tier. Every tier failure degrades to
// the next tier; the caller always receives an answer.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sobiamehak/humanoid-robotic-book/internal/classifier"
	"github.com/sobiamehak/humanoid-robotic-book/internal/llm"
	"github.com/sobiamehak/humanoid-robotic-book/internal/responder"
	"github.com/sobiamehak/humanoid-robotic-book/internal/retriever"
	"github.com/sobiamehak/humanoid-robotic-book/internal/storage"
)

// HitRetriever is the retrieval boundary the orchestrator depends on.
type HitRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]storage.RetrievalHit, error)
}

// Answer is the complete reply for one query. Provider records which tier
// produced the text: a provider name, "local" for the extractive responder,
// or "none" for canned replies.
type Answer struct {
	Text     string             `json:"text"`
	Sources  []retriever.Source `json:"sources,omitempty"`
	Provider string             `json:"provider"`
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	retriever HitRetriever
	providers []llm.Provider
	checker   *classifier.Checker
	memory    *Memory
	topK      int
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates an Orchestrator. retriever may be nil when no index is
// reachable; providers may be empty when no API keys are configured. Both
// degrade the pipeline rather than disabling it.
func New(ret HitRetriever, providers []llm.Provider, checker *classifier.Checker, memory *Memory, topK int, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if memory == nil {
		memory = NewMemory(0)
	}
	if topK <= 0 {
		topK = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		retriever: ret,
		providers: providers,
		checker:   checker,
		memory:    memory,
		topK:      topK,
		timeout:   timeout,
		logger:    logger,
	}
}

// Memory exposes the session transcript store.
func (o *Orchestrator) Memory() *Memory { return o.memory }

// Ask answers a query and records both sides of the exchange in the session
// transcript.
func (o *Orchestrator) Ask(ctx context.Context, sessionID, query string) Answer {
	answer := o.answer(ctx, sessionID, query, o.generate)
	o.memory.Append(sessionID, "user", query)
	o.memory.Append(sessionID, "assistant", answer.Text)
	return answer
}

// answer runs the tiered state machine. gen abstracts over blocking and
// streaming provider calls so both entry points share one chain.
func (o *Orchestrator) answer(ctx context.Context, sessionID, query string, gen func(context.Context, llm.Provider, string, string) (string, error)) Answer {
	verdict := classifier.Classify(query)
	if verdict.IsGreeting {
		return Answer{Text: responder.GreetingMessage, Provider: "none"}
	}
	if !o.checker.IsRelevant(ctx, query) {
		return Answer{Text: responder.OffTopicMessage, Provider: "none"}
	}

	contextText, sources := o.retrieve(ctx, sessionID, query)
	if contextText == "" {
		return Answer{Text: responder.NoInfoMessage, Provider: "none"}
	}

	for _, p := range o.providers {
		text, err := gen(ctx, p, query, contextText)
		if err != nil {
			o.logger.Warn("Provider failed, trying next tier", "provider", p.Name(), "error", err)
			continue
		}
		if llm.IsErrorSignature(text) {
			o.logger.Warn("Provider returned a failure reply, trying next tier", "provider", p.Name())
			continue
		}
		return Answer{Text: text, Sources: sources, Provider: p.Name()}
	}

	o.logger.Info("No provider produced an answer, using local extractive responder")
	return Answer{Text: responder.Extract(query, contextText), Sources: sources, Provider: "local"}
}

// retrieve embeds and searches, expanding short follow-up queries with the
// previous user message so "why?" retrieves against the topic under
// discussion rather than a single bare word.
func (o *Orchestrator) retrieve(ctx context.Context, sessionID, query string) (string, []retriever.Source) {
	if o.retriever == nil {
		return "", nil
	}

	searchQuery := query
	if len(strings.Fields(query)) <= 2 {
		if last := o.memory.LastUserQuery(sessionID); last != "" {
			searchQuery = last + " " + query
		}
	}

	hits, err := o.retriever.Retrieve(ctx, searchQuery, o.topK)
	if err != nil {
		o.logger.Warn("Retrieval failed, answering without context", "error", err)
		return "", nil
	}
	return retriever.BuildContext(hits)
}

// generate calls one provider with the per-provider timeout applied.
func (o *Orchestrator) generate(ctx context.Context, p llm.Provider, query, contextText string) (string, error) {
	pctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return p.Generate(pctx, query, contextText)
}
