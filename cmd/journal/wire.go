package main

import (
	"fmt"
	"log/slog"

	"journal/internal/config"
	"journal/internal/document"
	"journal/internal/domain"
	"journal/internal/embedding/ollama"
	"journal/internal/embedding/openai"
	"journal/internal/embedding/tfidf"
	"journal/internal/llm/anthropic"
	llmollama "journal/internal/llm/ollama"
	llmopenai "journal/internal/llm/openai"
	"journal/internal/retrieval"
	"journal/internal/service"
)

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    cfg.OpenAI.Timeout,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	case "ollama":
		e, err := ollama.NewEmbedder(ollama.Config{
			URL:     cfg.Ollama.URL,
			Model:   cfg.Ollama.Model,
			Timeout: cfg.Ollama.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("ollama embedder init failed: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newCompleter(cfg config.LLMConfig) (domain.Completer, error) {
	switch cfg.Provider {
	case "anthropic", "":
		c, err := anthropic.NewCompleter(anthropic.Config{
			APIKeyEnv:    cfg.Anthropic.APIKeyEnv,
			BaseURL:      cfg.Anthropic.BaseURL,
			FastModel:    cfg.FastModel,
			CapableModel: cfg.CapableModel,
			MaxTokens:    cfg.Anthropic.MaxTokens,
			Timeout:      cfg.Anthropic.Timeout,
			MaxRetries:   cfg.Anthropic.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic completer init failed: %w", err)
		}
		return c, nil
	case "openai":
		c, err := llmopenai.NewClient(llmopenai.Config{
			BaseURL:      cfg.OpenAI.BaseURL,
			APIKeyEnv:    cfg.OpenAI.APIKeyEnv,
			FastModel:    cfg.FastModel,
			CapableModel: cfg.CapableModel,
			Timeout:      cfg.OpenAI.Timeout,
			MaxRetries:   cfg.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai completer init failed: %w", err)
		}
		return c, nil
	case "ollama":
		c, err := llmollama.NewCompleter(llmollama.Config{
			URL:          cfg.Ollama.URL,
			FastModel:    cfg.FastModel,
			CapableModel: cfg.CapableModel,
			Timeout:      cfg.Ollama.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("ollama completer init failed: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

func newExtractor(cfg *config.AppConfig, completer domain.Completer, log *slog.Logger) *service.Extractor {
	return service.NewExtractor(completer, log, service.WithExtractorTimeout(cfg.Extractor.Timeout))
}

func newSynthesizer(cfg *config.AppConfig, emb domain.Embedder, completer domain.Completer, log *slog.Logger) *service.Synthesizer {
	builder := document.NewBuilder(log, document.WithLabeling(document.Labeling(cfg.Retrieval.RelativeDay)))
	return service.NewSynthesizer(emb, completer, log,
		service.WithBuilder(builder),
		service.WithRetrievalOptions(retrieval.Options{
			TopK:        cfg.Retrieval.TopK,
			Concurrency: cfg.Retrieval.EmbedConcurrency,
		}),
		service.WithQATimeout(cfg.QA.Timeout),
	)
}

func setupQA(cfg *config.AppConfig, log *slog.Logger, entriesPath string) (*service.Synthesizer, []domain.JournalEntry, error) {
	entries, err := loadEntries(entriesPath, log)
	if err != nil {
		return nil, nil, err
	}
	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, nil, err
	}
	completer, err := newCompleter(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	return newSynthesizer(cfg, emb, completer, log), entries, nil
}
