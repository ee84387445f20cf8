package anthropic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"journal/internal/domain"
)

const defaultMaxTokens = 1024

// Config configures the Claude completer.
type Config struct {
	APIKeyEnv    string
	BaseURL      string
	FastModel    string
	CapableModel string
	MaxTokens    int64
	Timeout      time.Duration
	MaxRetries   int
}

// Completer runs single-turn prompts against the Anthropic Messages API.
type Completer struct {
	client    anthropic.Client
	models    map[domain.ModelTier]string
	maxTokens int64
}

func NewCompleter(cfg Config) (*Completer, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.FastModel == "" {
		cfg.FastModel = "claude-3-5-haiku-latest"
	}
	if cfg.CapableModel == "" {
		cfg.CapableModel = "claude-sonnet-4-0"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Completer{
		client: anthropic.NewClient(opts...),
		models: map[domain.ModelTier]string{
			domain.TierFast:    cfg.FastModel,
			domain.TierCapable: cfg.CapableModel,
		},
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Complete sends the prompt as one user message and joins the text blocks of
// the reply.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	model, ok := c.models[req.Tier]
	if !ok {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("anthropic messages: empty response")
	}
	return b.String(), nil
}
