package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", cfg.Provider)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.Samples)
	assert.Equal(t, 3, cfg.ChunkSize)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5.0, cfg.RPS)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.Origins)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"PSYCHE_PROVIDER":        "anthropic",
		"PSYCHE_MODEL":           "claude-sonnet-4-5",
		"ANTHROPIC_API_KEY":      "ak",
		"OPENROUTER_API_KEY":     "ork",
		"PSYCHE_SAMPLES":         "2",
		"PSYCHE_REQUEST_TIMEOUT": "15s",
		"PSYCHE_CORS_ORIGINS":    "http://a.example,http://b.example",
		"PSYCHE_DB_DRIVER":       "postgres",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Samples)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Origins)

	l := cfg.LLM()
	assert.Equal(t, "anthropic", l.Provider)
	assert.Equal(t, "claude-sonnet-4-5", l.Model)
	assert.Equal(t, "ak", l.APIKey)

	r := cfg.Retry()
	assert.Equal(t, 3, r.MaxRetries)
	assert.Equal(t, 15*time.Second, r.Timeout)
	assert.Equal(t, 5.0, r.RPS)
}

func TestAPIKey_PerProvider(t *testing.T) {
	cfg := &Config{OpenRouterKey: "or", OpenAIKey: "oa", AnthropicKey: "an", GoogleKey: "go"}
	cases := map[string]string{"openrouter": "or", "openai": "oa", "Anthropic": "an", "google": "go"}
	for provider, want := range cases {
		cfg.Provider = provider
		if got := cfg.APIKey(); got != want {
			t.Errorf("APIKey() for %q = %q, want %q", provider, got, want)
		}
	}
}

func TestRetry_ZeroDisables(t *testing.T) {
	cfg := &Config{MaxRetries: 0}
	assert.Equal(t, -1, cfg.Retry().MaxRetries)
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := []map[string]string{
		{"PSYCHE_PROVIDER": "cohere"},
		{"PSYCHE_DB_DRIVER": "mysql"},
		{"PSYCHE_SAMPLES": "0"},
		{"PSYCHE_CHUNK_SIZE": "-1"},
		{"PSYCHE_TEMPERATURE": "3"},
		{"PSYCHE_MAX_RETRIES": "-2"},
		{"PSYCHE_SAMPLES": "many"},
		{"PSYCHE_REQUEST_TIMEOUT": "soon"},
	}
	for _, vars := range cases {
		if _, err := LoadFrom(vars); err == nil {
			t.Errorf("LoadFrom(%v) expected error", vars)
		}
	}
}
