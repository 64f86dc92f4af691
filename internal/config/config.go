package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the memory service configuration. Environment variables are
// parsed from the MYDRIFT_ prefix, e.g. MYDRIFT_WEAVIATE_URL.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Vector index
	WeaviateURL string `envconfig:"WEAVIATE_URL" default:"localhost:8080"`

	// Document store: "auto" derives from the environment (postgres in
	// production, sqlite otherwise).
	DocStoreDriver string `envconfig:"DOCSTORE_DRIVER" default:"auto"`
	PostgresDSN    string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"mydrift.db"`

	// Embedding: the production encoder is ollama; any non-production
	// environment falls back to the random encoder unless overridden.
	EmbedProvider string `envconfig:"EMBED_PROVIDER" default:"auto"`
	EmbedModel    string `envconfig:"EMBED_MODEL" default:"jina-embeddings-v2-base-zh"`
	EmbedDim      int    `envconfig:"EMBED_DIM" default:"768"`
	OllamaURL     string `envconfig:"OLLAMA_URL" default:"localhost:11434"`

	// Chunking
	WindowSizes []int `envconfig:"WINDOW_SIZES" default:"5"`
	Stride      int   `envconfig:"STRIDE" default:"1"`
	BatchSize   int   `envconfig:"BATCH_SIZE" default:"250"`

	// Retrieval
	ContextWindow int `envconfig:"CONTEXT_WINDOW" default:"30"`

	// Generation
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY" default:""`

	// Startup checks (collection bootstrap, embedder warmup) run in the
	// background with this timeout.
	BootstrapTimeoutSeconds int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"30"`
}

// ResolveDefaults validates the configuration and derives "auto" settings.
func (c *Config) ResolveDefaults() error {
	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}

	if c.DocStoreDriver == "" || c.DocStoreDriver == "auto" {
		if c.Environment == EnvProduction {
			c.DocStoreDriver = "postgres"
		} else {
			c.DocStoreDriver = "sqlite"
		}
	}
	switch c.DocStoreDriver {
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("MYDRIFT_POSTGRES_DSN is required when DOCSTORE_DRIVER=postgres")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DOCSTORE_DRIVER: %s", c.DocStoreDriver)
	}

	if c.EmbedProvider == "" || c.EmbedProvider == "auto" {
		if c.Environment == EnvProduction {
			c.EmbedProvider = "ollama"
		} else {
			c.EmbedProvider = "random"
		}
	}
	switch c.EmbedProvider {
	case "ollama", "random":
	default:
		return fmt.Errorf("unsupported EMBED_PROVIDER: %s", c.EmbedProvider)
	}

	if c.EmbedDim <= 0 {
		return fmt.Errorf("EMBED_DIM must be positive, got %d", c.EmbedDim)
	}
	if c.Stride <= 0 || c.BatchSize <= 0 || c.ContextWindow <= 0 {
		return fmt.Errorf("STRIDE, BATCH_SIZE and CONTEXT_WINDOW must be positive")
	}
	if c.BootstrapTimeoutSeconds <= 0 {
		c.BootstrapTimeoutSeconds = 30
	}
	if len(c.WindowSizes) == 0 {
		return fmt.Errorf("WINDOW_SIZES must name at least one window size")
	}
	for _, w := range c.WindowSizes {
		if w <= 0 {
			return fmt.Errorf("WINDOW_SIZES must be positive, got %d", w)
		}
	}
	return nil
}

// New creates a Config from MYDRIFT_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("MYDRIFT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }
