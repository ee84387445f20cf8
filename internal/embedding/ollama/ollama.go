package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// Embedder produces embeddings through a local Ollama server.
type Embedder struct {
	client *api.Client
	model  string
}

// Config configures the Ollama embedder.
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// NewEmbedder creates an Ollama-backed embedder.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.URL, err)
	}
	return &Embedder{
		client: api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
	}, nil
}

func (e *Embedder) Name() string { return "ollama" }

func (e *Embedder) Prepare(context.Context, []string) error { return nil }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings(ctx, &api.EmbeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.New("ollama embeddings: empty embedding")
	}
	return resp.Embedding, nil
}
