// Package postgres implements the document store on PostgreSQL via the pgx
// stdlib driver. Senders are a JSONB array with a GIN index; JSONB
// containment gives the ALL-of sender filter directly.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mydrift-ai/mydrift/internal/chunk"
	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/model"
)

// Open opens a PostgreSQL connection and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres DSN is empty", model.ErrSetup)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type pgStore struct {
	db  *sql.DB
	cfg docstore.CollectionConfig
}

// New constructs a Store for one collection backed by db.
func New(db *sql.DB, cfg docstore.CollectionConfig) (docstore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &pgStore{db: db, cfg: cfg}, nil
}

func (s *pgStore) EnsureCollection(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            doc_id          TEXT PRIMARY KEY,
            start_timestamp BIGINT NOT NULL,
            end_timestamp   BIGINT NOT NULL,
            senders         JSONB NOT NULL DEFAULT '[]',
            text            TEXT NOT NULL
        )`, s.cfg.TableName()))
	if err != nil {
		return fmt.Errorf("%w: create table %s: %v", model.ErrSetup, s.cfg.TableName(), err)
	}
	return nil
}

func (s *pgStore) EnsureIndexes(ctx context.Context) error {
	table := s.cfg.TableName()
	for _, stmt := range []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_senders_idx ON %s USING GIN (senders)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_start_ts_idx ON %s (start_timestamp)`, table, table),
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: create index on %s: %v", model.ErrSetup, table, err)
		}
	}
	return nil
}

func (s *pgStore) BulkUpsert(ctx context.Context, docs []model.ChunkDocument) (int, error) {
	stmt := fmt.Sprintf(`
        INSERT INTO %s (doc_id, start_timestamp, end_timestamp, senders, text)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (doc_id) DO UPDATE SET
            start_timestamp = EXCLUDED.start_timestamp,
            end_timestamp   = EXCLUDED.end_timestamp,
            senders         = EXCLUDED.senders,
            text            = EXCLUDED.text`, s.cfg.TableName())

	written := 0
	var errs []error
	for _, d := range docs {
		senders, err := json.Marshal(d.Senders)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: marshal senders for %s: %v", model.ErrValidation, d.DocID, err))
			continue
		}
		_, err = s.db.ExecContext(ctx, stmt,
			chunk.StripID(d.DocID), d.StartTimestamp, d.EndTimestamp, string(senders), d.Text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: upsert %s: %v", model.ErrTransientStore, d.DocID, err))
			continue
		}
		written++
	}
	return written, errors.Join(errs...)
}

func (s *pgStore) GetByIDs(ctx context.Context, ids []string) ([]model.ChunkDocument, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
        SELECT doc_id, start_timestamp, end_timestamp, senders, text
        FROM %s WHERE doc_id = ANY($1)`, s.cfg.TableName()), stripIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: get by ids: %v", model.ErrTransientStore, err)
	}
	defer rows.Close()
	return scanDocs(rows)
}

func (s *pgStore) Paginate(ctx context.Context, page, pageSize int, senders []string) (*model.ChunkPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page and page size must be positive", model.ErrValidation)
	}
	where, args, err := sendersFilter(senders)
	if err != nil {
		return nil, err
	}
	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
        SELECT doc_id, start_timestamp, end_timestamp, senders, text
        FROM %s %s
        ORDER BY start_timestamp ASC
        LIMIT $%d OFFSET $%d`, s.cfg.TableName(), where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: paginate: %v", model.ErrTransientStore, err)
	}
	defer rows.Close()

	docs, err := scanDocs(rows)
	if err != nil {
		return nil, err
	}
	return &model.ChunkPage{Chunks: docs, Page: page, PageSize: pageSize}, nil
}

func (s *pgStore) PageCount(ctx context.Context, pageSize int, senders []string) (int, error) {
	if pageSize < 1 {
		return 0, fmt.Errorf("%w: page size must be positive", model.ErrValidation)
	}
	where, args, err := sendersFilter(senders)
	if err != nil {
		return 0, err
	}
	var total int
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, s.cfg.TableName(), where), args...)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: page count: %v", model.ErrTransientStore, err)
	}
	return (total + pageSize - 1) / pageSize, nil
}

func (s *pgStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE doc_id = ANY($1)`, s.cfg.TableName()), stripIDs(ids))
	if err != nil {
		return fmt.Errorf("%w: delete by ids: %v", model.ErrTransientStore, err)
	}
	return nil
}

// sendersFilter builds the ALL-of senders condition via JSONB containment.
func sendersFilter(senders []string) (string, []any, error) {
	if len(senders) == 0 {
		return "", nil, nil
	}
	want, err := json.Marshal(senders)
	if err != nil {
		return "", nil, fmt.Errorf("%w: marshal sender filter: %v", model.ErrValidation, err)
	}
	return "WHERE senders @> $1", []any{string(want)}, nil
}

func stripIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = chunk.StripID(id)
	}
	return out
}

func scanDocs(rows *sql.Rows) ([]model.ChunkDocument, error) {
	var out []model.ChunkDocument
	for rows.Next() {
		var d model.ChunkDocument
		var senders []byte
		if err := rows.Scan(&d.DocID, &d.StartTimestamp, &d.EndTimestamp, &senders, &d.Text); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", model.ErrTransientStore, err)
		}
		if err := json.Unmarshal(senders, &d.Senders); err != nil {
			return nil, fmt.Errorf("%w: decode senders: %v", model.ErrTransientStore, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
