package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "textbook_content", cfg.Qdrant.Collection)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
	assert.Equal(t, 1000, cfg.Chunking.MaxTokens)
	assert.Equal(t, 100, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 20, cfg.LLM.TimeoutSecs)
	assert.Equal(t, 50, cfg.Session.MaxTurns)
	assert.Equal(t, 5, cfg.TopK)
}

func TestLoad_FileOverridesWithDefaultsFilledIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
qdrant:
  host: qdrant.internal
chunking:
  max_tokens: 800
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, 800, cfg.Chunking.MaxTokens)
	// Unspecified fields keep their defaults.
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, 100, cfg.Chunking.OverlapTokens)
}

func TestLoad_ExplicitZerosSurvive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunking:
  overlap_tokens: 0
llm:
  temperature: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Zero overlap and zero temperature are legal settings, not requests
	// for the defaults.
	assert.Equal(t, 0, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 0.0, cfg.LLM.Temperature)
	// Sibling fields left unset still default.
	assert.Equal(t, 1000, cfg.Chunking.MaxTokens)
	assert.Equal(t, 20, cfg.LLM.TimeoutSecs)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("QDRANT_HOST", "env-host")
	t.Setenv("QDRANT_PORT", "6999")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Qdrant.Host)
	assert.Equal(t, 6999, cfg.Qdrant.Port)
	assert.Equal(t, "or-key", cfg.LLM.OpenRouterKey)
}

func TestLoad_RejectsMalformedYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("qdrant: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
