// Package main provides the chatbot server entry point. It serves the MCP
// tools over stdio or HTTP, plus the health, landing, and SSE chat
// endpoints. A missing Qdrant or missing API keys degrade the pipeline
// instead of preventing startup.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sobiamehak/humanoid-robotic-book/internal/classifier"
	"github.com/sobiamehak/humanoid-robotic-book/internal/config"
	"github.com/sobiamehak/humanoid-robotic-book/internal/embedding"
	"github.com/sobiamehak/humanoid-robotic-book/internal/llm"
	mcpserver "github.com/sobiamehak/humanoid-robotic-book/internal/mcp"
	"github.com/sobiamehak/humanoid-robotic-book/internal/orchestrator"
	"github.com/sobiamehak/humanoid-robotic-book/internal/retriever"
	"github.com/sobiamehak/humanoid-robotic-book/internal/storage"
)

func main() {
	// Stdout carries the stdio MCP transport, so all logging goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// The index is optional at startup: without it the chatbot still
	// classifies queries and returns canned replies.
	var store *storage.Store
	store, err = storage.NewStore(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Embedding.Dimension)
	if err != nil {
		logger.Warn("Qdrant unreachable, running without retrieval", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	embedder := buildEmbedder(cfg, logger)
	fallback := embedding.NewHash(cfg.Embedding.Dimension)

	var searcher retriever.Searcher
	if store != nil {
		searcher = store
	}
	ret := retriever.New(embedder, fallback, searcher, logger)

	providers := llm.FromConfig(cfg.LLM)
	if len(providers) == 0 {
		logger.Warn("No generation providers configured, answers come from the local extractive responder")
	}

	var checker *classifier.Checker
	if cfg.LLM.RelevanceCheck && len(providers) > 0 {
		checker = classifier.NewChecker(providers[0], logger)
	}

	orch := orchestrator.New(
		ret,
		providers,
		checker,
		orchestrator.NewMemory(cfg.Session.MaxTurns),
		cfg.TopK,
		time.Duration(cfg.LLM.TimeoutSecs)*time.Second,
		logger,
	)

	server := mcpserver.NewServer(&mcpserver.Config{
		Orchestrator: orch,
		Retriever:    ret,
		Store:        store,
		Providers:    providers,
		Collection:   cfg.Qdrant.Collection,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))
	mux.HandleFunc("/chat/stream", mcpserver.NewStreamHandler(orch))

	var health mcpserver.HealthChecker
	if store != nil {
		health = store
	}
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(health, len(providers)))

	addr := "0.0.0.0:" + getEnv("PORT", "8080")

	if getEnv("SERVER_MODE", "false") == "true" {
		logger.Info("Starting HTTP server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Stdio mode for local MCP clients, with the HTTP endpoints alongside.
	go func() {
		logger.Info("Starting HTTP endpoints", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("HTTP endpoints failed", "error", err)
		}
	}()

	logger.Info("Starting chatbot MCP server on stdio")
	if err := server.Run(ctx); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// buildEmbedder selects the configured embedding provider, dropping to
// deterministic hash vectors when no OpenAI key is available.
func buildEmbedder(cfg *config.Config, logger *slog.Logger) embedding.Provider {
	if cfg.Embedding.Provider == "openai" && cfg.LLM.OpenAIKey != "" {
		p, err := embedding.NewOpenAI(cfg.LLM.OpenAIKey, cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.BatchSize)
		if err == nil {
			return p
		}
		logger.Warn("Failed to create OpenAI embedding provider", "error", err)
	}
	logger.Warn("Using hash embeddings, retrieval quality will be degraded")
	return embedding.NewHash(cfg.Embedding.Dimension)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
