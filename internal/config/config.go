// Package config loads the chatbot configuration from an optional yaml file
// with environment variable overrides for secrets and endpoints.
package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// QdrantConfig contains connection details for the vector index.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig selects and configures the embedding provider.
// Provider is "openai" or "hash" (explicit degraded mode, non-semantic
// vectors — only for deployments without an embedding key).
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// ChunkingConfig configures the token windowing applied at ingestion time.
type ChunkingConfig struct {
	MaxTokens     int `yaml:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
}

// LLMConfig configures the generation providers. OpenRouter is primary when
// both keys are present; OpenAI is the direct-vendor secondary.
type LLMConfig struct {
	OpenRouterKey   string  `yaml:"openrouter_key"`
	OpenRouterModel string  `yaml:"openrouter_model"`
	OpenAIKey       string  `yaml:"openai_key"`
	OpenAIModel     string  `yaml:"openai_model"`
	TimeoutSecs     int     `yaml:"timeout_secs"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	RelevanceCheck  bool    `yaml:"relevance_check"`
}

// SessionConfig bounds the in-memory conversation store.
type SessionConfig struct {
	MaxTurns int `yaml:"max_turns"`
}

// Config is the root configuration structure.
type Config struct {
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	LLM       LLMConfig       `yaml:"llm"`
	Session   SessionConfig   `yaml:"session"`
	TopK      int             `yaml:"top_k"`
	DocsRoot  string          `yaml:"docs_root"`
}

// Load reads the config from path. A missing file yields defaults; env vars
// override secrets and connection settings in all cases. The file is
// decoded over a defaults-populated Config, so omitted fields keep their
// defaults while explicit zero values (overlap_tokens: 0, temperature: 0)
// are respected.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Qdrant:    QdrantConfig{Host: "localhost", Port: 6334, Collection: "textbook_content"},
		Embedding: EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", Dimension: 1536, BatchSize: 500},
		Chunking:  ChunkingConfig{MaxTokens: 1000, OverlapTokens: 100},
		LLM: LLMConfig{
			OpenRouterModel: "openai/gpt-3.5-turbo",
			OpenAIModel:     "gpt-4o-mini",
			TimeoutSecs:     20,
			Temperature:     0.7,
			MaxOutputTokens: 1000,
		},
		Session:  SessionConfig{MaxTurns: 50},
		TopK:     5,
		DocsRoot: "docs",
	}
}

func applyEnv(cfg *Config) {
	cfg.Qdrant.Host = getEnv("QDRANT_HOST", cfg.Qdrant.Host)
	cfg.Qdrant.Port = getEnvInt("QDRANT_PORT", cfg.Qdrant.Port)
	cfg.Qdrant.APIKey = getEnv("QDRANT_API_KEY", cfg.Qdrant.APIKey)
	cfg.Qdrant.Collection = getEnv("QDRANT_COLLECTION", cfg.Qdrant.Collection)
	cfg.Embedding.Provider = getEnv("EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.LLM.OpenRouterKey = getEnv("OPENROUTER_API_KEY", cfg.LLM.OpenRouterKey)
	cfg.LLM.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.LLM.OpenAIKey)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
