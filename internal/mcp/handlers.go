package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sobiamehak/humanoid-robotic-book/internal/llm"
	"github.com/sobiamehak/humanoid-robotic-book/internal/orchestrator"
	"github.com/sobiamehak/humanoid-robotic-book/internal/retriever"
	"github.com/sobiamehak/humanoid-robotic-book/internal/storage"
)

// defaultSessionID groups tool calls that carry no session id of their own.
const defaultSessionID = "mcp-default"

// makeAskHandler creates the ask_textbook tool handler. The orchestrator
// always produces an answer, so the handler never returns a tool error for
// pipeline degradation; only a missing query is rejected.
func makeAskHandler(orch *orchestrator.Orchestrator) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		if input.Query == "" {
			return nil, AskOutput{}, errors.New("query is required")
		}
		sessionID := input.SessionID
		if sessionID == "" {
			sessionID = defaultSessionID
		}

		answer := orch.Ask(ctx, sessionID, input.Query)
		sources := answer.Sources
		if sources == nil {
			sources = []retriever.Source{}
		}
		return nil, AskOutput{
			Answer:   answer.Text,
			Sources:  sources,
			Provider: answer.Provider,
		}, nil
	}
}

// makeSearchHandler creates the search_textbook tool handler, a thin
// wrapper over raw retrieval with score filtering.
func makeSearchHandler(ret *retriever.Retriever) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		if input.Query == "" {
			return nil, SearchOutput{}, errors.New("query is required")
		}
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}

		hits, err := ret.Retrieve(ctx, input.Query, maxResults)
		if err != nil {
			return nil, SearchOutput{}, fmt.Errorf("search failed: %w", err)
		}

		results := make([]SearchResult, 0, len(hits))
		for _, hit := range hits {
			if hit.Score < input.MinScore {
				continue
			}
			results = append(results, SearchResult{
				ChunkID:      hit.ChunkID,
				Text:         hit.Text,
				Chapter:      hit.Metadata.Chapter,
				Lesson:       hit.Metadata.Lesson,
				SectionTitle: hit.Metadata.SectionTitle,
				SourceURL:    hit.Metadata.SourceURL,
				Score:        hit.Score,
			})
		}

		if len(results) == 0 {
			return nil, SearchOutput{
				Results: []SearchResult{},
				Message: "No matching book content found. Try broader search terms.",
			}, nil
		}
		return nil, SearchOutput{Results: results}, nil
	}
}

// makeStatusHandler creates the index_status tool handler. Unreachable
// dependencies are reported in the output rather than returned as errors,
// since the tool's whole purpose is describing degraded state.
func makeStatusHandler(store *storage.Store, providers []llm.Provider, collection string) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		output := StatusOutput{
			Collection:   collection,
			QdrantStatus: "disconnected",
			Providers:    make([]ProviderStatus, 0, len(providers)),
		}

		if store != nil {
			if err := store.Health(ctx); err == nil {
				output.QdrantStatus = "connected"
				if points, err := store.CountPoints(ctx); err == nil {
					output.Points = points
				}
			}
		}

		for _, p := range providers {
			status := "available"
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := p.CheckConnection(pctx); err != nil {
				status = "unavailable"
			}
			cancel()
			output.Providers = append(output.Providers, ProviderStatus{
				Name:   p.Name(),
				Status: status,
			})
		}
		return nil, output, nil
	}
}
