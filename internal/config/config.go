// Package config reads runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dshills/psyche/internal/llm"
	"github.com/dshills/psyche/internal/store"
)

// Config is the process configuration. Command-line flags override it.
type Config struct {
	Provider string `env:"PSYCHE_PROVIDER" envDefault:"openrouter"`
	Model    string `env:"PSYCHE_MODEL"`
	BaseURL  string `env:"PSYCHE_BASE_URL"`

	OpenRouterKey string `env:"OPENROUTER_API_KEY"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	AnthropicKey  string `env:"ANTHROPIC_API_KEY"`
	GoogleKey     string `env:"GOOGLE_API_KEY"`

	DBDriver  string   `env:"PSYCHE_DB_DRIVER" envDefault:"sqlite"`
	DBDSN     string   `env:"PSYCHE_DB_DSN"`
	RedisAddr string   `env:"PSYCHE_REDIS_ADDR"`
	HTTPAddr  string   `env:"PSYCHE_HTTP_ADDR" envDefault:":8080"`
	Origins   []string `env:"PSYCHE_CORS_ORIGINS" envSeparator:","`

	Samples        int           `env:"PSYCHE_SAMPLES" envDefault:"5"`
	ChunkSize      int           `env:"PSYCHE_CHUNK_SIZE" envDefault:"3"`
	Temperature    float64       `env:"PSYCHE_TEMPERATURE" envDefault:"0.7"`
	MaxTokens      int           `env:"PSYCHE_MAX_TOKENS" envDefault:"4096"`
	RequestTimeout time.Duration `env:"PSYCHE_REQUEST_TIMEOUT" envDefault:"90s"`
	MaxRetries     int           `env:"PSYCHE_MAX_RETRIES" envDefault:"3"`
	RPS            float64       `env:"PSYCHE_RPS" envDefault:"5"`
	CacheTTL       time.Duration `env:"PSYCHE_CACHE_TTL" envDefault:"60s"`

	LogLevel string `env:"PSYCHE_LOG_LEVEL" envDefault:"info"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that the environment parser cannot.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "openrouter", "openai", "anthropic", "google":
	default:
		return fmt.Errorf("config: PSYCHE_PROVIDER %q is not one of openrouter, openai, anthropic, google", c.Provider)
	}
	if _, err := store.ParseDriver(c.DBDriver); err != nil {
		return fmt.Errorf("config: PSYCHE_DB_DRIVER: %w", err)
	}
	if c.Samples < 1 {
		return fmt.Errorf("config: PSYCHE_SAMPLES must be at least 1, got %d", c.Samples)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("config: PSYCHE_CHUNK_SIZE must be at least 1, got %d", c.ChunkSize)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config: PSYCHE_TEMPERATURE must be in [0, 2], got %g", c.Temperature)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config: PSYCHE_MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	switch strings.ToLower(c.Provider) {
	case "openai":
		return c.OpenAIKey
	case "anthropic":
		return c.AnthropicKey
	case "google":
		return c.GoogleKey
	default:
		return c.OpenRouterKey
	}
}

// LLM returns the provider configuration.
func (c *Config) LLM() llm.Config {
	return llm.Config{
		Provider: strings.ToLower(c.Provider),
		Model:    c.Model,
		APIKey:   c.APIKey(),
		BaseURL:  c.BaseURL,
	}
}

// Retry returns the retry options for provider requests. A MaxRetries of 0
// disables retries.
func (c *Config) Retry() llm.RetryOptions {
	retries := c.MaxRetries
	if retries == 0 {
		retries = -1
	}
	return llm.RetryOptions{MaxRetries: retries, Timeout: c.RequestTimeout, RPS: c.RPS}
}
