package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Eval    EvalConfig
	Storage StorageConfig
}

type ServerConfig struct {
	Host         string        `env:"HOST,default=0.0.0.0"`
	Port         string        `env:"PORT,default=3001"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=60s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=120s"`
	AllowOrigins string        `env:"CORS_ALLOW_ORIGINS,default=*"`
	LogLevel     string        `env:"LOG_LEVEL,default=info"`
}

type LLMConfig struct {
	Provider        string        `env:"LLM_PROVIDER,default=gemini"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL,default=gemini-2.5-flash"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	ClaudeModel     string        `env:"CLAUDE_MODEL,default=claude-sonnet-4-5"`
	BaseURL         string        `env:"LLM_BASE_URL"`
	Timeout         time.Duration `env:"JUDGE_TIMEOUT,default=30s"`
	Temperature     float64       `env:"JUDGE_TEMPERATURE,default=0.3"`
	MaxTokens       int           `env:"JUDGE_MAX_TOKENS,default=1000"`
}

type EvalConfig struct {
	Concurrency       int    `env:"EVAL_CONCURRENCY,default=6"`
	RubricCatalogPath string `env:"RUBRIC_CATALOG_PATH"`
}

type StorageConfig struct {
	ExportPath     string `env:"EXPORT_DIR,default=./exports"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES,default=10485760"`
}

// ConfigError is a fatal startup problem; the service must not serve
// traffic when one is returned.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Load reads .env when present, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using process environment")
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom decodes and validates configuration from lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return &ConfigError{Field: "GEMINI_API_KEY", Reason: "is required when LLM_PROVIDER=gemini"}
		}
	case ProviderClaude:
		if c.LLM.AnthropicAPIKey == "" {
			return &ConfigError{Field: "ANTHROPIC_API_KEY", Reason: "is required when LLM_PROVIDER=claude"}
		}
	default:
		return &ConfigError{Field: "LLM_PROVIDER", Reason: fmt.Sprintf("must be %q or %q, got %q", ProviderGemini, ProviderClaude, c.LLM.Provider)}
	}

	if c.Eval.Concurrency < 1 {
		return &ConfigError{Field: "EVAL_CONCURRENCY", Reason: "must be at least 1"}
	}
	if c.LLM.MaxTokens < 1 {
		return &ConfigError{Field: "JUDGE_MAX_TOKENS", Reason: "must be at least 1"}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return &ConfigError{Field: "JUDGE_TEMPERATURE", Reason: "must be within [0, 2]"}
	}
	if c.Storage.MaxUploadBytes < 1 {
		return &ConfigError{Field: "MAX_UPLOAD_BYTES", Reason: "must be positive"}
	}
	return nil
}

// APIKey returns the credential of the selected provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == ProviderClaude {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

// Model returns the model name of the selected provider.
func (c LLMConfig) Model() string {
	if c.Provider == ProviderClaude {
		return c.ClaudeModel
	}
	return c.GeminiModel
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c ServerConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// IsConfigError reports whether err is a fatal configuration problem.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
