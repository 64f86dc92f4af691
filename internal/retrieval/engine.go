// Package retrieval embeds a query, searches the vector index across all
// ingestion sources, and joins the matching chunk texts into one grounding
// context string.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/embeddings"
	"github.com/mydrift-ai/mydrift/internal/model"
	"github.com/mydrift-ai/mydrift/internal/searchindex"
)

// Scope optionally narrows a retrieval to one sender identity.
type Scope struct {
	Sender string
}

// Engine fans similarity hits out to the per-source document stores and
// merges the returned text.
type Engine struct {
	enc     embeddings.Provider
	index   searchindex.Index
	stores  map[string]docstore.Store
	sources []string
	log     zerolog.Logger
}

// NewEngine builds a retrieval engine. sources fixes the enumeration order
// of the per-source lookups, which in turn fixes the context join order.
func NewEngine(enc embeddings.Provider, index searchindex.Index,
	stores map[string]docstore.Store, sources []string, log zerolog.Logger) (*Engine, error) {
	for _, src := range sources {
		if _, ok := stores[src]; !ok {
			return nil, fmt.Errorf("%w: no document store for source %q", model.ErrSetup, src)
		}
	}
	return &Engine{enc: enc, index: index, stores: stores, sources: sources, log: log}, nil
}

// Retrieve returns the joined grounding context for a query. No matches
// across all sources yields an empty string, not an error.
func (e *Engine) Retrieve(ctx context.Context, query string, limit int, scope *Scope) (string, error) {
	vecs, err := e.enc.EmbedBatch(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return "", fmt.Errorf("%w: encoder returned %d vectors for one query", model.ErrValidation, len(vecs))
	}

	q := searchindex.Query{
		Vector: vecs[0],
		Limit:  limit,
		Fields: []string{"source"},
	}
	if scope != nil && scope.Sender != "" {
		q.Include = map[string]any{"senders": scope.Sender}
	}

	hits, err := e.index.Search(ctx, q)
	if err != nil {
		return "", fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return "", nil
	}

	// Partition hit ids by source, preserving rank order within each source.
	idsBySource := make(map[string][]string, len(e.sources))
	for _, hit := range hits {
		src, _ := hit.Payload["source"].(string)
		idsBySource[src] = append(idsBySource[src], hit.ID)
	}

	var texts []string
	for _, src := range e.sources {
		ids := idsBySource[src]
		if len(ids) == 0 {
			continue
		}
		docs, err := e.stores[src].GetByIDs(ctx, ids)
		if err != nil {
			return "", fmt.Errorf("lookup %s chunks: %w", src, err)
		}
		e.log.Debug().Str("source", src).Int("hits", len(ids)).Int("docs", len(docs)).Msg("retrieved chunks")
		for _, d := range docs {
			texts = append(texts, d.Text)
		}
	}
	return strings.Join(texts, " "), nil
}
