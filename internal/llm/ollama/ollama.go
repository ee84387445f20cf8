package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"journal/internal/domain"
)

// Config configures the Ollama completer.
type Config struct {
	URL          string
	FastModel    string
	CapableModel string
	Timeout      time.Duration
}

// Completer generates text through a local Ollama server.
type Completer struct {
	client *api.Client
	models map[domain.ModelTier]string
}

func NewCompleter(cfg Config) (*Completer, error) {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434"
	}
	if cfg.FastModel == "" {
		cfg.FastModel = "llama3.2"
	}
	if cfg.CapableModel == "" {
		cfg.CapableModel = cfg.FastModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.URL, err)
	}
	return &Completer{
		client: api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		models: map[domain.ModelTier]string{
			domain.TierFast:    cfg.FastModel,
			domain.TierCapable: cfg.CapableModel,
		},
	}, nil
}

func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	model, ok := c.models[req.Tier]
	if !ok {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	stream := false
	var b strings.Builder
	err := c.client.Generate(ctx, &api.GenerateRequest{
		Model:   model,
		Prompt:  req.Prompt,
		Stream:  &stream,
		Options: map[string]any{"temperature": req.Temperature},
	}, func(resp api.GenerateResponse) error {
		b.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return b.String(), nil
}
