package factory

import (
	"github.com/rs/zerolog"

	"github.com/mydrift-ai/mydrift/internal/config"
	"github.com/mydrift-ai/mydrift/internal/generation"
)

// NewGenerationBackends wires every backend the configuration can serve.
// The self-hosted ollama backend is always available; the hosted anthropic
// backend requires an API key.
func NewGenerationBackends(cfg *config.Config, log zerolog.Logger) map[string]generation.Backend {
	backends := map[string]generation.Backend{
		"ollama": generation.NewOllamaBackend(cfg.OllamaURL),
	}
	if cfg.AnthropicAPIKey != "" {
		backends["anthropic"] = generation.NewAnthropicBackend(cfg.AnthropicAPIKey)
	} else {
		log.Debug().Msg("anthropic backend disabled: no API key configured")
	}
	return backends
}
