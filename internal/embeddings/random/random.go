// Package random is the lightweight deployment-mode encoder: correct shape,
// random values. It lets the pipeline run without a model binary; callers
// must not depend on vector values beyond dimension and count.
package random

import (
	"context"
	"math/rand/v2"
)

type Provider struct{ dim int }

func New(dim int) *Provider { return &Provider{dim: dim} }

func (p *Provider) Dimensions() int { return p.dim }

func (p *Provider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, p.dim)
		for j := range vec {
			vec[j] = rand.Float32()
		}
		out[i] = vec
	}
	return out, nil
}
