// Package mcp exposes the textbook chatbot over the Model Context Protocol
// plus the plain HTTP endpoints deployments need around it.
package mcp

import "github.com/sobiamehak/humanoid-robotic-book/internal/retriever"

// AskInput defines the input parameters for the ask_textbook tool.
type AskInput struct {
	// Query is the question about the textbook.
	Query string `json:"query" jsonschema:"required,description=The question about the Physical AI & Humanoid Robotics textbook"`
	// SessionID groups related questions into one conversation.
	SessionID string `json:"session_id,omitempty" jsonschema:"description=Optional conversation id; questions sharing an id share context"`
}

// AskOutput contains the generated answer.
type AskOutput struct {
	// Answer is the reply text.
	Answer string `json:"answer"`
	// Sources cites the book sections the answer is grounded in.
	Sources []retriever.Source `json:"sources"`
	// Provider records which tier produced the answer.
	Provider string `json:"provider"`
}

// SearchInput defines the input parameters for the search_textbook tool.
type SearchInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query over the textbook content"`
	// MaxResults is the maximum number of chunks to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of chunks to return"`
	// MinScore is the minimum similarity threshold (0-1).
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum=0,maximum=1,description=Minimum similarity score threshold (0-1)"`
}

// SearchOutput contains the raw retrieval results.
type SearchOutput struct {
	// Results is the list of matching chunks.
	Results []SearchResult `json:"results"`
	// Message provides informational context when there are no results.
	Message string `json:"message,omitempty"`
}

// SearchResult is one retrieved chunk with its book location.
type SearchResult struct {
	ChunkID      string  `json:"chunk_id"`
	Text         string  `json:"text"`
	Chapter      string  `json:"chapter"`
	Lesson       string  `json:"lesson"`
	SectionTitle string  `json:"section_title"`
	SourceURL    string  `json:"source_url"`
	Score        float64 `json:"score"`
}

// StatusInput defines the input for the index_status tool. It takes no
// parameters.
type StatusInput struct{}

// ProviderStatus reports one generation provider's availability.
type ProviderStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// StatusOutput describes the index and provider state.
type StatusOutput struct {
	// Collection is the Qdrant collection name.
	Collection string `json:"collection"`
	// Points is the number of indexed chunks.
	Points uint64 `json:"points"`
	// QdrantStatus is "connected" or "disconnected".
	QdrantStatus string `json:"qdrant_status"`
	// Providers lists the configured generation providers.
	Providers []ProviderStatus `json:"providers"`
}
