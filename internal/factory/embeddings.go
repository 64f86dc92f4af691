package factory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mydrift-ai/mydrift/internal/config"
	emb "github.com/mydrift-ai/mydrift/internal/embeddings"
	"github.com/mydrift-ai/mydrift/internal/embeddings/ollama"
	"github.com/mydrift-ai/mydrift/internal/embeddings/random"
)

// NewEmbeddingProvider creates an embedding provider based on config.
// Launches optional async warmup; returns provider immediately for fast startup.
func NewEmbeddingProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) emb.Provider {
	var provider emb.Provider

	switch cfg.EmbedProvider {
	case "random":
		// Deterministic-shape vectors for local and test runs; no warmup needed.
		return random.New(cfg.EmbedDim)
	default:
		provider = ollama.New(cfg.OllamaURL, cfg.EmbedModel, cfg.EmbedDim)
	}

	// Optional async warmup with configurable timeout; don't block startup
	go func() {
		warmupTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		warmupCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
		defer cancel()

		if vecs, err := provider.EmbedBatch(warmupCtx, []string{"factory-warmup-check"}); err != nil || len(vecs) == 0 {
			log.Warn().Err(err).
				Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup failed")
		} else {
			log.Debug().Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup completed")
		}
	}()

	return provider
}
