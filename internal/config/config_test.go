package config

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"GEMINI_API_KEY": "test-key",
	}))
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "test-key", cfg.LLM.APIKey())
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model())
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3001", cfg.Server.Addr())
	assert.Equal(t, 6, cfg.Eval.Concurrency)
	assert.Equal(t, int64(10485760), cfg.Storage.MaxUploadBytes)
}

func TestLoadFromErrors(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantField string
	}{{
		name:      "missing gemini key",
		env:       map[string]string{},
		wantField: "GEMINI_API_KEY",
	}, {
		name:      "missing anthropic key",
		env:       map[string]string{"LLM_PROVIDER": "claude", "GEMINI_API_KEY": "unused"},
		wantField: "ANTHROPIC_API_KEY",
	}, {
		name:      "unknown provider",
		env:       map[string]string{"LLM_PROVIDER": "openai", "GEMINI_API_KEY": "k"},
		wantField: "LLM_PROVIDER",
	}, {
		name:      "zero concurrency",
		env:       map[string]string{"GEMINI_API_KEY": "k", "EVAL_CONCURRENCY": "0"},
		wantField: "EVAL_CONCURRENCY",
	}, {
		name:      "temperature out of range",
		env:       map[string]string{"GEMINI_API_KEY": "k", "JUDGE_TEMPERATURE": "3"},
		wantField: "JUDGE_TEMPERATURE",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			require.True(t, IsConfigError(err), "got %v", err)

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
		})
	}
}

func TestClaudeProvider(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"LLM_PROVIDER":      " Claude ",
		"ANTHROPIC_API_KEY": "sk-test",
		"CLAUDE_MODEL":      "claude-test",
	}))
	require.NoError(t, err)
	assert.Equal(t, ProviderClaude, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey())
	assert.Equal(t, "claude-test", cfg.LLM.Model())
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ServerConfig{LogLevel: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, ServerConfig{LogLevel: "WARN"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, ServerConfig{LogLevel: "chatty"}.SlogLevel())
}

func TestMalformedValue(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"GEMINI_API_KEY": "k",
		"JUDGE_TIMEOUT":  "soon",
	}))
	require.Error(t, err)
	assert.False(t, IsConfigError(err))
}

func TestZeroTemperatureIsKept(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"GEMINI_API_KEY":    "k",
		"JUDGE_TEMPERATURE": "0",
	}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.LLM.Temperature)
}
