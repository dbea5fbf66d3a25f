// Package main provides the ingestion entry point: chunk the textbook's
// markdown, embed the chunks, and index them into Qdrant.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sobiamehak/humanoid-robotic-book/internal/chunker"
	"github.com/sobiamehak/humanoid-robotic-book/internal/config"
	"github.com/sobiamehak/humanoid-robotic-book/internal/embedding"
	ghfetch "github.com/sobiamehak/humanoid-robotic-book/internal/github"
	"github.com/sobiamehak/humanoid-robotic-book/internal/ingest"
	"github.com/sobiamehak/humanoid-robotic-book/internal/storage"
)

var (
	configPath  string
	docsDir     string
	fromGitHub  bool
	githubOwner string
	githubRepo  string
	githubPath  string
	maxTokens   int
	overlap     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "ingest",
		Short:        "Index the Physical AI & Humanoid Robotics textbook into Qdrant",
		Long:         "Chunks the textbook's markdown files, embeds each chunk, and upserts the vectors into Qdrant. Content comes from a local directory or from the book's GitHub repository.",
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
	rootCmd.Flags().StringVar(&docsDir, "docs", "", "local directory of markdown files (default from config)")
	rootCmd.Flags().BoolVar(&fromGitHub, "github", false, "fetch the textbook sources from GitHub instead of a local directory")
	rootCmd.Flags().StringVar(&githubOwner, "github-owner", ghfetch.DefaultOwner, "GitHub repository owner")
	rootCmd.Flags().StringVar(&githubRepo, "github-repo", ghfetch.DefaultRepo, "GitHub repository name")
	rootCmd.Flags().StringVar(&githubPath, "github-path", ghfetch.DefaultBasePath, "directory within the repository")
	rootCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "maximum tokens per chunk (default from config)")
	rootCmd.Flags().IntVar(&overlap, "overlap", 0, "overlap tokens between adjacent chunks (default from config)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if maxTokens > 0 {
		cfg.Chunking.MaxTokens = maxTokens
	}
	if overlap > 0 {
		cfg.Chunking.OverlapTokens = overlap
	}
	if docsDir == "" {
		docsDir = cfg.DocsRoot
	}

	ch, err := chunker.New(docsDir, cfg.Chunking.MaxTokens, cfg.Chunking.OverlapTokens)
	if err != nil {
		return fmt.Errorf("create chunker: %w", err)
	}

	embedder := buildEmbedder(cfg, logger)

	store, err := storage.NewStore(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, embedder.Dimension())
	if err != nil {
		return fmt.Errorf("connect to qdrant: %w", err)
	}
	defer store.Close()

	pipeline := ingest.New(ch, embedder, store, logger)

	start := time.Now()
	var result *ingest.Result
	if fromGitHub {
		fetcher, err := ghfetch.NewFetcher(os.Getenv("GITHUB_TOKEN"), githubOwner, githubRepo, githubPath, logger)
		if err != nil {
			return fmt.Errorf("create github fetcher: %w", err)
		}
		docs, err := fetcher.FetchAll(ctx)
		if err != nil {
			return fmt.Errorf("fetch from github: %w", err)
		}
		result, err = pipeline.IngestDocuments(ctx, docs)
		if err != nil {
			return err
		}
	} else {
		result, err = pipeline.IngestDir(ctx, docsDir)
		if err != nil {
			return err
		}
	}

	logger.Info("Ingestion complete",
		"successful", result.Successful,
		"failed", result.Failed,
		"chunks", result.Chunks,
		"elapsed", time.Since(start).Round(time.Millisecond))
	for _, msg := range result.Errors {
		logger.Warn("File skipped", "detail", msg)
	}
	if result.Successful == 0 {
		return fmt.Errorf("no files were indexed")
	}
	return nil
}

// buildEmbedder mirrors the chatbot's provider selection so queries and
// indexed chunks always come from the same vector space.
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
