package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		Environment:    EnvDevelopment,
		WeaviateURL:    "localhost:8080",
		DocStoreDriver: "auto",
		SQLitePath:     "mydrift.db",
		EmbedProvider:  "auto",
		EmbedModel:     "test-model",
		EmbedDim:       768,
		WindowSizes:    []int{5},
		Stride:         1,
		BatchSize:      250,
		ContextWindow:  30,
	}
}

func TestResolveDefaultsDevelopment(t *testing.T) {
	cfg := baseConfig()
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "sqlite", cfg.DocStoreDriver)
	assert.Equal(t, "random", cfg.EmbedProvider)
}

func TestResolveDefaultsProduction(t *testing.T) {
	cfg := baseConfig()
	cfg.Environment = EnvProduction
	cfg.PostgresDSN = "postgres://localhost/mydrift"
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "postgres", cfg.DocStoreDriver)
	assert.Equal(t, "ollama", cfg.EmbedProvider)
	assert.True(t, cfg.IsProduction())
}

func TestResolveDefaultsPostgresRequiresDSN(t *testing.T) {
	cfg := baseConfig()
	cfg.Environment = EnvProduction
	assert.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaultsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad environment", func(c *Config) { c.Environment = "staging" }},
		{"bad driver", func(c *Config) { c.DocStoreDriver = "mongodb" }},
		{"bad provider", func(c *Config) { c.EmbedProvider = "openai" }},
		{"zero dim", func(c *Config) { c.EmbedDim = 0 }},
		{"zero stride", func(c *Config) { c.Stride = 0 }},
		{"no window sizes", func(c *Config) { c.WindowSizes = nil }},
		{"negative window size", func(c *Config) { c.WindowSizes = []int{5, -1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.ResolveDefaults())
		})
	}
}
