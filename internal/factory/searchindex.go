package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mydrift-ai/mydrift/internal/config"
	"github.com/mydrift-ai/mydrift/internal/searchindex"
)

// VectorCollection is the single versioned index collection shared by all
// ingestion sources. Schema or tuning changes bump the version.
func VectorCollection(cfg *config.Config) searchindex.CollectionConfig {
	return searchindex.CollectionConfig{
		BaseName:       "memory_chunk",
		Version:        "2025-04-09",
		VectorDim:      cfg.EmbedDim,
		Distance:       "cosine",
		MaxConnections: 48,
		EFConstruction: 200,
	}
}

// NewSearchIndex creates the vector index implementation based on config.
func NewSearchIndex(cfg *config.Config, log zerolog.Logger) (searchindex.Index, error) {
	if cfg.WeaviateURL == "" {
		return nil, fmt.Errorf("vector index URL not configured - required for service operation")
	}
	return searchindex.NewWeaviateIndex(cfg.WeaviateURL, VectorCollection(cfg), log)
}
