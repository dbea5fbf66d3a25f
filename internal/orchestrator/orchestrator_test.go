package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sobiamehak/humanoid-robotic-book/internal/chunker"
	"github.com/sobiamehak/humanoid-robotic-book/internal/llm"
	"github.com/sobiamehak/humanoid-robotic-book/internal/responder"
	"github.com/sobiamehak/humanoid-robotic-book/internal/retriever"
	"github.com/sobiamehak/humanoid-robotic-book/internal/storage"
)

type stubProvider struct {
	name string
	text string
	err  error
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Generate(context.Context, string, string) (string, error) {
	return s.text, s.err
}

func (s stubProvider) GenerateStream(_ context.Context, _, _ string, emit func(string)) error {
	if s.err != nil {
		return s.err
	}
	emit(s.text)
	return nil
}

func (s stubProvider) CheckConnection(context.Context) error { return s.err }

type stubRetriever struct {
	hits      []storage.RetrievalHit
	err       error
	calls     int
	lastQuery string
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, _ int) ([]storage.RetrievalHit, error) {
	s.calls++
	s.lastQuery = query
	return s.hits, s.err
}

func balanceHits() []storage.RetrievalHit {
	return []storage.RetrievalHit{{
		ChunkID: "balance_chunk_0",
		Text:    "Balance control uses inertial sensors and force feedback.",
		Score:   0.9,
		Metadata: chunker.Metadata{
			SectionTitle: "Balance",
			SourceURL:    "/chapter-3-balance",
		},
	}}
}

func newTestOrchestrator(ret HitRetriever, providers ...llm.Provider) *Orchestrator {
	return New(ret, providers, nil, nil, 5, 0, nil)
}

func TestAsk_GreetingSkipsRetrieval(t *testing.T) {
	ret := &stubRetriever{hits: balanceHits()}
	o := newTestOrchestrator(ret, stubProvider{name: "openrouter", text: "unused"})

	answer := o.Ask(context.Background(), "s1", "hello")
	assert.Equal(t, responder.GreetingMessage, answer.Text)
	assert.Equal(t, "none", answer.Provider)
	assert.Empty(t, answer.Sources)
	assert.Zero(t, ret.calls)
}

func TestAsk_OffTopicSkipsRetrieval(t *testing.T) {
	ret := &stubRetriever{hits: balanceHits()}
	o := newTestOrchestrator(ret, stubProvider{name: "openrouter", text: "unused"})

	answer := o.Ask(context.Background(), "s1", "what is the best pizza recipe?")
	assert.Equal(t, responder.OffTopicMessage, answer.Text)
	assert.Equal(t, "none", answer.Provider)
	assert.Zero(t, ret.calls)
}

func TestAsk_NoHitsYieldsNoInfo(t *testing.T) {
	o := newTestOrchestrator(&stubRetriever{}, stubProvider{name: "openrouter", text: "unused"})

	answer := o.Ask(context.Background(), "s1", "explain bipedal locomotion")
	assert.Equal(t, responder.NoInfoMessage, answer.Text)
	assert.Equal(t, "none", answer.Provider)
}

func TestAsk_NilRetrieverYieldsNoInfo(t *testing.T) {
	o := newTestOrchestrator(nil)
	answer := o.Ask(context.Background(), "s1", "explain bipedal locomotion")
	assert.Equal(t, responder.NoInfoMessage, answer.Text)
}

func TestAsk_FirstProviderWins(t *testing.T) {
	o := newTestOrchestrator(&stubRetriever{hits: balanceHits()},
		stubProvider{name: "openrouter", text: "Balance relies on feedback loops."},
		stubProvider{name: "openai", text: "should not be reached"})

	answer := o.Ask(context.Background(), "s1", "explain balance control")
	assert.Equal(t, "Balance relies on feedback loops.", answer.Text)
	assert.Equal(t, "openrouter", answer.Provider)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, retriever.Source{Title: "Balance", URL: "/chapter-3-balance"}, answer.Sources[0])
}

func TestAsk_FallsThroughOnErrorAndSignature(t *testing.T) {
	o := newTestOrchestrator(&stubRetriever{hits: balanceHits()},
		stubProvider{name: "openrouter", err: errors.New("timeout")},
		stubProvider{name: "broken", text: "Sorry, I encountered an error."},
		stubProvider{name: "openai", text: "Balance relies on feedback loops."})

	answer := o.Ask(context.Background(), "s1", "explain balance control")
	assert.Equal(t, "openai", answer.Provider)
	assert.Equal(t, "Balance relies on feedback loops.", answer.Text)
}

func TestAsk_AllProvidersFailUsesLocalResponder(t *testing.T) {
	o := newTestOrchestrator(&stubRetriever{hits: balanceHits()},
		stubProvider{name: "openrouter", err: errors.New("timeout")},
		stubProvider{name: "openai", text: ""})

	answer := o.Ask(context.Background(), "s1", "explain balance control")
	assert.Equal(t, "local", answer.Provider)
	assert.Contains(t, answer.Text, "Based on the book content:")
	assert.Contains(t, answer.Text, "Balance control uses inertial sensors")
	require.Len(t, answer.Sources, 1)
}

func TestAsk_NoProvidersConfigured(t *testing.T) {
	o := newTestOrchestrator(&stubRetriever{hits: balanceHits()})

	answer := o.Ask(context.Background(), "s1", "explain balance control")
	assert.Equal(t, "local", answer.Provider)
}

func TestAsk_ShortFollowUpExpandsRetrievalQuery(t *testing.T) {
	ret := &stubRetriever{hits: balanceHits()}
	o := newTestOrchestrator(ret, stubProvider{name: "openrouter", text: "An answer."})

	o.Ask(context.Background(), "s1", "explain balance control")
	assert.Equal(t, "explain balance control", ret.lastQuery)

	o.Ask(context.Background(), "s1", "why?")
	assert.Equal(t, "explain balance control why?", ret.lastQuery)
}

func TestAsk_RecordsTranscript(t *testing.T) {
	o := newTestOrchestrator(&stubRetriever{hits: balanceHits()},
		stubProvider{name: "openrouter", text: "An answer."})

	o.Ask(context.Background(), "s1", "explain balance control")
	history := o.Memory().History("s1")
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "explain balance control", history[0].Content)
	assert.False(t, history[0].At.IsZero())
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "An answer.", history[1].Content)
}

func TestAskStream_EventOrderAndReassembly(t *testing.T) {
	o := newTestOrchestrator(&stubRetriever{hits: balanceHits()},
		stubProvider{name: "openrouter", text: "Balance relies on feedback loops."})

	var events []StreamEvent
	o.AskStream(context.Background(), "s1", "explain balance control", func(e StreamEvent) {
		events = append(events, e)
	})

	require.NotEmpty(t, events)
	assert.Equal(t, EventSources, events[0].Type)
	require.Len(t, events[0].Sources, 1)
	assert.Equal(t, EventDone, events[len(events)-1].Type)

	var b strings.Builder
	for _, e := range events[1 : len(events)-1] {
		require.Equal(t, EventChunk, e.Type)
		b.WriteString(e.Content)
	}
	assert.Equal(t, "Balance relies on feedback loops.", b.String())

	assert.Equal(t, "Balance", events[1].Content)
	assert.Equal(t, " relies", events[2].Content)
}

func TestAskStream_StreamingProviderFailureFallsBack(t *testing.T) {
	o := newTestOrchestrator(&stubRetriever{hits: balanceHits()},
		stubProvider{name: "openrouter", err: errors.New("stream reset")})

	var events []StreamEvent
	o.AskStream(context.Background(), "s1", "explain balance control", func(e StreamEvent) {
		events = append(events, e)
	})

	var b strings.Builder
	for _, e := range events {
		if e.Type == EventChunk {
			b.WriteString(e.Content)
		}
	}
	assert.Contains(t, b.String(), "Based on the book content:")
	assert.Equal(t, EventDone, events[len(events)-1].Type)
}

func TestAskStream_GreetingHasNoSourcesEvent(t *testing.T) {
	o := newTestOrchestrator(&stubRetriever{hits: balanceHits()})

	var events []StreamEvent
	o.AskStream(context.Background(), "s1", "hello", func(e StreamEvent) {
		events = append(events, e)
	})

	require.NotEmpty(t, events)
	assert.Equal(t, EventChunk, events[0].Type)
	for _, e := range events {
		assert.NotEqual(t, EventSources, e.Type)
	}
}
