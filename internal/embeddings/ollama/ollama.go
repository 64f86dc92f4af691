// Package ollama implements the production embedding provider against an
// Ollama server's batch embed API.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Provider embeds text through POST /api/embed on an Ollama host.
type Provider struct {
	model string
	dim   int
	http  *resty.Client
}

// New builds a provider for the given model. baseURL may omit the scheme.
func New(baseURL, model string, dim int) *Provider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(120 * time.Second)
	return &Provider{model: model, dim: dim, http: client}
}

func (p *Provider) Dimensions() int { return p.dim }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

// EmbedBatch encodes all texts in a single call, preserving input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out embedResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(embedRequest{Model: p.model, Input: texts}).
		SetResult(&out).
		Post("/api/embed")
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama embed: %s", out.Error)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(out.Embeddings), len(texts))
	}
	for i, vec := range out.Embeddings {
		if len(vec) != p.dim {
			return nil, fmt.Errorf("ollama embed: vector %d has dimension %d, want %d", i, len(vec), p.dim)
		}
	}
	return out.Embeddings, nil
}
