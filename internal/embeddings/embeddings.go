// Package embeddings defines the encoder contract used by ingestion and
// retrieval. Callers may rely only on shape: one vector per input string, in
// input order, all of Dimensions() length.
package embeddings

import "context"

// Provider produces fixed-dimension vector representations for text.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
