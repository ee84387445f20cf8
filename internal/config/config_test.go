package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_missingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Ollama.Model)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.EqualValues(t, 1024, cfg.LLM.Anthropic.MaxTokens)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 4, cfg.Retrieval.EmbedConcurrency)
	assert.Equal(t, "rank", cfg.Retrieval.RelativeDay)
	assert.Equal(t, 30*time.Second, cfg.Extractor.Timeout)
	assert.Equal(t, 60*time.Second, cfg.QA.Timeout)
}

func TestLoad_fileOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
embedder:
  type: Ollama
  ollama:
    model: mxbai-embed-large
llm:
  provider: openai
  fast_model: gpt-4o-mini
  openai:
    base_url: http://localhost:8080/v1/
retrieval:
  top_k: 3
  relative_day: calendar
qa:
  timeout: 15s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedder.Type)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedder.Ollama.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Embedder.Ollama.URL)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.FastModel)
	assert.Empty(t, cfg.LLM.CapableModel)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.OpenAI.BaseURL)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 4, cfg.Retrieval.EmbedConcurrency)
	assert.Equal(t, "calendar", cfg.Retrieval.RelativeDay)
	assert.Equal(t, 15*time.Second, cfg.QA.Timeout)
}

func TestLoad_envOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "retrieval:\n  top_k: 3\n")
	t.Setenv("RETRIEVAL_TOP_K", "7")
	t.Setenv("LLM_PROVIDER", "ollama")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown embedder", yaml: "embedder:\n  type: word2vec\n"},
		{name: "unknown provider", yaml: "llm:\n  provider: palm\n"},
		{name: "unknown labeling", yaml: "retrieval:\n  relative_day: weekly\n"},
		{name: "negative top k", yaml: "retrieval:\n  top_k: -1\n"},
		{name: "negative timeout", yaml: "qa:\n  timeout: -5s\n"},
		{name: "bad log format", yaml: "log:\n  format: xml\n"},
		{name: "malformed yaml", yaml: "retrieval: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, t.TempDir(), "config.yaml", tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	cfg.Retrieval.TopK = 9
	cfg.QA.Timeout = 90 * time.Second

	path := filepath.Join(dir, "nested", "config.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadDefault_writesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "journal", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)

	writeFile(t, ".", "config.yaml", "retrieval:\n  top_k: 2\n")
	cfg, path, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", path)
	assert.Equal(t, 2, cfg.Retrieval.TopK)
}
