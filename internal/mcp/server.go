package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sobiamehak/humanoid-robotic-book/internal/llm"
	"github.com/sobiamehak/humanoid-robotic-book/internal/orchestrator"
	"github.com/sobiamehak/humanoid-robotic-book/internal/retriever"
	"github.com/sobiamehak/humanoid-robotic-book/internal/storage"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server       *mcp.Server
	orchestrator *orchestrator.Orchestrator
	store        *storage.Store
	logger       *slog.Logger
}

// Config holds server dependencies. Store may be nil when Qdrant is
// unreachable; the tools then report the degraded state instead of failing
// at startup.
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Retriever    *retriever.Retriever
	Store        *storage.Store
	Providers    []llm.Provider
	Collection   string
	Logger       *slog.Logger
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	impl := &mcp.Implementation{
		Name:    "humanoid-robotics-book-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_textbook",
		Description: "Ask a question about the Physical AI & Humanoid Robotics textbook. Answers are generated from retrieved book content and cite their sources.",
	}, makeAskHandler(cfg.Orchestrator))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_textbook",
		Description: "Search the textbook semantically. Returns raw matching chunks with chapter and lesson locations; use ask_textbook for a generated answer.",
	}, makeSearchHandler(cfg.Retriever))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the state of the textbook index and generation providers: chunk counts, Qdrant connectivity, and provider availability.",
	}, makeStatusHandler(cfg.Store, cfg.Providers, cfg.Collection))

	return &Server{
		server:       server,
		orchestrator: cfg.Orchestrator,
		store:        cfg.Store,
		logger:       logger,
	}
}

// Run starts the server on stdio transport and blocks until the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance for transport
// handlers that wrap it.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
