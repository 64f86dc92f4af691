// Package searchindex provides the collection-scoped vector index used for
// similarity ranking. The paired document store remains the system of record
// for text; the index holds embeddings plus a filterable payload projection.
package searchindex

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mydrift-ai/mydrift/internal/model"
)

// Record is one index entry: chunk id, embedding, and the payload projection
// used for filtering and scoring.
type Record struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Query describes one similarity search. Include conditions are ANDed
// must-match; Exclude conditions are ANDed must-not-match; nil maps impose no
// constraint. Fields selects which payload fields come back with each hit.
type Query struct {
	Vector         []float32
	Limit          int
	Offset         int
	ScoreThreshold float32
	Include        map[string]any
	Exclude        map[string]any
	Fields         []string
}

// Hit is one ranked match. Ordering is by score descending; tie order is
// index-internal and callers must not depend on it.
type Hit struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Index is a collection-scoped vector store. Upsert is write-or-replace by
// id and safe to repeat; callers bound batch sizes before calling.
type Index interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, q Query) ([]Hit, error)
}

// CollectionConfig is the static shape of one index collection, validated at
// construction time. Schema or tuning changes become a new Version rather
// than a silent migration.
type CollectionConfig struct {
	BaseName       string
	Version        string
	VectorDim      int
	Distance       string
	MaxConnections int
	EFConstruction int
}

var classNameSep = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Validate rejects incomplete configurations before any client is built.
func (c CollectionConfig) Validate() error {
	if c.BaseName == "" || c.Version == "" {
		return fmt.Errorf("%w: collection base name and version required", model.ErrSetup)
	}
	if c.VectorDim <= 0 {
		return fmt.Errorf("%w: vector dimension must be positive, got %d", model.ErrSetup, c.VectorDim)
	}
	if c.Distance != "cosine" {
		return fmt.Errorf("%w: unsupported distance %q", model.ErrSetup, c.Distance)
	}
	if c.MaxConnections <= 0 || c.EFConstruction <= 0 {
		return fmt.Errorf("%w: hnsw maxConnections and efConstruction must be positive", model.ErrSetup)
	}
	return nil
}

// ClassName renders the versioned collection name in the index's identifier
// grammar (leading uppercase, underscores for separators).
func (c CollectionConfig) ClassName() string {
	name := c.BaseName + "_" + c.Version
	name = classNameSep.ReplaceAllString(name, "_")
	return strings.ToUpper(name[:1]) + name[1:]
}
