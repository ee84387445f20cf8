package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL    string        `yaml:"base_url"    env:"EMBEDDER_OPENAI_BASE_URL"    env-default:"https://api.openai.com/v1"`
	APIKeyEnv  string        `yaml:"api_key_env" env:"EMBEDDER_OPENAI_API_KEY_ENV" env-default:"OPENAI_API_KEY"`
	Model      string        `yaml:"model"       env:"EMBEDDER_OPENAI_MODEL"       env-default:"text-embedding-3-small"`
	Timeout    time.Duration `yaml:"timeout"     env:"EMBEDDER_OPENAI_TIMEOUT"     env-default:"30s"`
	MaxRetries int           `yaml:"max_retries" env:"EMBEDDER_OPENAI_MAX_RETRIES" env-default:"3"`
}

// OllamaEmbedderConfig holds configuration for the Ollama embedder.
type OllamaEmbedderConfig struct {
	URL     string        `yaml:"url"     env:"EMBEDDER_OLLAMA_URL"     env-default:"http://localhost:11434"`
	Model   string        `yaml:"model"   env:"EMBEDDER_OLLAMA_MODEL"   env-default:"nomic-embed-text"`
	Timeout time.Duration `yaml:"timeout" env:"EMBEDDER_OLLAMA_TIMEOUT" env-default:"30s"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string               `yaml:"type"   env:"EMBEDDER_TYPE" env-default:"tfidf"`
	OpenAI OpenAIEmbedderConfig `yaml:"openai"`
	Ollama OllamaEmbedderConfig `yaml:"ollama"`
}

// AnthropicConfig configures the Claude completer.
type AnthropicConfig struct {
	APIKeyEnv  string        `yaml:"api_key_env" env:"LLM_ANTHROPIC_API_KEY_ENV" env-default:"ANTHROPIC_API_KEY"`
	BaseURL    string        `yaml:"base_url"    env:"LLM_ANTHROPIC_BASE_URL"`
	MaxTokens  int64         `yaml:"max_tokens"  env:"LLM_ANTHROPIC_MAX_TOKENS"  env-default:"1024"`
	Timeout    time.Duration `yaml:"timeout"     env:"LLM_ANTHROPIC_TIMEOUT"     env-default:"60s"`
	MaxRetries int           `yaml:"max_retries" env:"LLM_ANTHROPIC_MAX_RETRIES" env-default:"2"`
}

// OpenAIChatConfig configures the OpenAI-compatible chat completer.
type OpenAIChatConfig struct {
	BaseURL    string        `yaml:"base_url"    env:"LLM_OPENAI_BASE_URL"    env-default:"https://api.openai.com/v1"`
	APIKeyEnv  string        `yaml:"api_key_env" env:"LLM_OPENAI_API_KEY_ENV" env-default:"OPENAI_API_KEY"`
	Timeout    time.Duration `yaml:"timeout"     env:"LLM_OPENAI_TIMEOUT"     env-default:"60s"`
	MaxRetries int           `yaml:"max_retries" env:"LLM_OPENAI_MAX_RETRIES" env-default:"2"`
}

// OllamaChatConfig configures the Ollama completer.
type OllamaChatConfig struct {
	URL     string        `yaml:"url"     env:"LLM_OLLAMA_URL"     env-default:"http://localhost:11434"`
	Timeout time.Duration `yaml:"timeout" env:"LLM_OLLAMA_TIMEOUT" env-default:"2m"`
}

// LLMConfig selects the completion provider. Empty model names fall back to
// the provider's defaults.
type LLMConfig struct {
	Provider     string           `yaml:"provider"      env:"LLM_PROVIDER" env-default:"anthropic"`
	FastModel    string           `yaml:"fast_model"    env:"LLM_FAST_MODEL"`
	CapableModel string           `yaml:"capable_model" env:"LLM_CAPABLE_MODEL"`
	Anthropic    AnthropicConfig  `yaml:"anthropic"`
	OpenAI       OpenAIChatConfig `yaml:"openai"`
	Ollama       OllamaChatConfig `yaml:"ollama"`
}

// RetrievalConfig tunes document construction and retrieval.
type RetrievalConfig struct {
	TopK             int    `yaml:"top_k"             env:"RETRIEVAL_TOP_K"             env-default:"5"`
	EmbedConcurrency int    `yaml:"embed_concurrency" env:"RETRIEVAL_EMBED_CONCURRENCY" env-default:"4"`
	RelativeDay      string `yaml:"relative_day"      env:"RETRIEVAL_RELATIVE_DAY"      env-default:"rank"`
}

// ExtractorConfig configures sentiment extraction.
type ExtractorConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"EXTRACTOR_TIMEOUT" env-default:"30s"`
}

// QAConfig configures question answering.
type QAConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"QA_TIMEOUT" env-default:"60s"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Log       LogConfig       `yaml:"log"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Extractor ExtractorConfig `yaml:"extractor"`
	QA        QAConfig        `yaml:"qa"`
}

// Load reads a config from path. Environment variables override file values
// and env-default tags fill the rest. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	} else {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}

	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/journal/config.yaml.
// If neither exists, it writes defaults to ~/.config/journal/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg, err := Load(userPath)
	if err != nil {
		return nil, "", err
	}
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks values that env-default tags cannot express.
func (c *AppConfig) Validate() error {
	if err := oneOf("embedder.type", c.Embedder.Type, "tfidf", "openai", "ollama"); err != nil {
		return err
	}
	if err := oneOf("llm.provider", c.LLM.Provider, "anthropic", "openai", "ollama"); err != nil {
		return err
	}
	if err := oneOf("retrieval.relative_day", c.Retrieval.RelativeDay, "rank", "calendar"); err != nil {
		return err
	}
	if err := oneOf("log.format", c.Log.Format, "text", "json"); err != nil {
		return err
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be > 0 (got %d)", c.Retrieval.TopK)
	}
	if c.Retrieval.EmbedConcurrency <= 0 {
		return fmt.Errorf("retrieval.embed_concurrency must be > 0 (got %d)", c.Retrieval.EmbedConcurrency)
	}
	if c.Extractor.Timeout < 0 || c.QA.Timeout < 0 {
		return errors.New("timeouts must be >= 0")
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s (got %q)", field, strings.Join(allowed, ", "), value)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "journal", "config.yaml"), nil
}

func applyConfigDefaults(cfg *AppConfig) {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Embedder.Type = strings.ToLower(strings.TrimSpace(cfg.Embedder.Type))
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Retrieval.RelativeDay = strings.ToLower(strings.TrimSpace(cfg.Retrieval.RelativeDay))
	if cfg.Embedder.OpenAI.BaseURL != "" {
		cfg.Embedder.OpenAI.BaseURL = strings.TrimSuffix(cfg.Embedder.OpenAI.BaseURL, "/")
	}
	if cfg.LLM.OpenAI.BaseURL != "" {
		cfg.LLM.OpenAI.BaseURL = strings.TrimSuffix(cfg.LLM.OpenAI.BaseURL, "/")
	}
}
