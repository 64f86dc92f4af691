// Package docstore provides the authoritative chunk text store: idempotent
// bulk upsert keyed by chunk id, bulk id lookup, and paginated browsing.
// Implementations live under docstore/<driver>/ (postgres, sqlite).
package docstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mydrift-ai/mydrift/internal/model"
)

// Store is scoped to one logical collection per ingestion source.
//
// Id normalization: chunk ids circulate in dashed UUID form (the vector
// index's grammar); the store persists the stripped 32-hex form. GetByIDs
// and DeleteByIDs accept either and normalize at the boundary.
type Store interface {
	EnsureCollection(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error

	// BulkUpsert replaces-or-inserts records by id and reports how many were
	// written. Record failures do not block sibling records in the batch.
	BulkUpsert(ctx context.Context, docs []model.ChunkDocument) (int, error)

	GetByIDs(ctx context.Context, ids []string) ([]model.ChunkDocument, error)

	// Paginate returns page (1-based) sorted by start_timestamp ascending.
	// A senders filter requires ALL listed senders to be present. No matches
	// yields an empty page, not an error.
	Paginate(ctx context.Context, page, pageSize int, senders []string) (*model.ChunkPage, error)
	PageCount(ctx context.Context, pageSize int, senders []string) (int, error)

	// DeleteByIDs is idempotent; unknown ids are not an error.
	DeleteByIDs(ctx context.Context, ids []string) error
}

// CollectionConfig names one versioned document collection.
type CollectionConfig struct {
	BaseName string
	Version  string
}

var tableNameSep = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Validate rejects incomplete configurations at construction time.
func (c CollectionConfig) Validate() error {
	if c.BaseName == "" || c.Version == "" {
		return fmt.Errorf("%w: document collection base name and version required", model.ErrSetup)
	}
	return nil
}

// TableName renders the versioned collection name as a SQL identifier.
func (c CollectionConfig) TableName() string {
	return tableNameSep.ReplaceAllString(c.BaseName+"_"+c.Version, "_")
}
