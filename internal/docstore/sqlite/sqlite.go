// Package sqlite implements the document store on SQLite for local single
// user deployments and tests. Senders are stored as a JSON array and
// filtered with json_each.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mydrift-ai/mydrift/internal/chunk"
	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/model"
)

// Open opens (or creates) a SQLite database at path with WAL enabled.
// Pass ":memory:" for an in-process database.
func Open(path string) (*sql.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type liteStore struct {
	db  *sql.DB
	cfg docstore.CollectionConfig
}

// New constructs a Store for one collection backed by db.
func New(db *sql.DB, cfg docstore.CollectionConfig) (docstore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &liteStore{db: db, cfg: cfg}, nil
}

func (s *liteStore) EnsureCollection(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            doc_id          TEXT PRIMARY KEY,
            start_timestamp INTEGER NOT NULL,
            end_timestamp   INTEGER NOT NULL,
            senders         TEXT NOT NULL DEFAULT '[]',
            text            TEXT NOT NULL
        )`, s.cfg.TableName()))
	if err != nil {
		return fmt.Errorf("%w: create table %s: %v", model.ErrSetup, s.cfg.TableName(), err)
	}
	return nil
}

func (s *liteStore) EnsureIndexes(ctx context.Context) error {
	table := s.cfg.TableName()
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_start_ts_idx ON %s (start_timestamp)`, table, table))
	if err != nil {
		return fmt.Errorf("%w: create index on %s: %v", model.ErrSetup, table, err)
	}
	return nil
}

func (s *liteStore) BulkUpsert(ctx context.Context, docs []model.ChunkDocument) (int, error) {
	stmt := fmt.Sprintf(`
        INSERT INTO %s (doc_id, start_timestamp, end_timestamp, senders, text)
        VALUES (?,?,?,?,?)
        ON CONFLICT (doc_id) DO UPDATE SET
            start_timestamp = excluded.start_timestamp,
            end_timestamp   = excluded.end_timestamp,
            senders         = excluded.senders,
            text            = excluded.text`, s.cfg.TableName())

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

func (s *liteStore) GetByIDs(ctx context.Context, ids []string) ([]model.ChunkDocument, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders, args := idArgs(ids)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
        SELECT doc_id, start_timestamp, end_timestamp, senders, text
        FROM %s WHERE doc_id IN (%s)`, s.cfg.TableName(), placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: get by ids: %v", model.ErrTransientStore, err)
	}
	defer rows.Close()
	return scanDocs(rows)
}

func (s *liteStore) Paginate(ctx context.Context, page, pageSize int, senders []string) (*model.ChunkPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page and page size must be positive", model.ErrValidation)
	}
	where, args := sendersFilter(senders)
	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
        SELECT doc_id, start_timestamp, end_timestamp, senders, text
        FROM %s %s
        ORDER BY start_timestamp ASC
        LIMIT ? OFFSET ?`, s.cfg.TableName(), where), args...)
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

func (s *liteStore) PageCount(ctx context.Context, pageSize int, senders []string) (int, error) {
	if pageSize < 1 {
		return 0, fmt.Errorf("%w: page size must be positive", model.ErrValidation)
	}
	where, args := sendersFilter(senders)
	var total int
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, s.cfg.TableName(), where), args...)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: page count: %v", model.ErrTransientStore, err)
	}
	return (total + pageSize - 1) / pageSize, nil
}

func (s *liteStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := idArgs(ids)
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE doc_id IN (%s)`, s.cfg.TableName(), placeholders), args...)
	if err != nil {
		return fmt.Errorf("%w: delete by ids: %v", model.ErrTransientStore, err)
	}
	return nil
}

// sendersFilter requires every listed sender to appear in the JSON array.
func sendersFilter(senders []string) (string, []any) {
	if len(senders) == 0 {
		return "", nil
	}
	conds := make([]string, len(senders))
	args := make([]any, len(senders))
	for i, sender := range senders {
		conds[i] = `EXISTS (SELECT 1 FROM json_each(senders) WHERE json_each.value = ?)`
		args[i] = sender
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func idArgs(ids []string) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = chunk.StripID(id)
	}
	return placeholders, args
}

func scanDocs(rows *sql.Rows) ([]model.ChunkDocument, error) {
	var out []model.ChunkDocument
	for rows.Next() {
		var d model.ChunkDocument
		var senders string
		if err := rows.Scan(&d.DocID, &d.StartTimestamp, &d.EndTimestamp, &senders, &d.Text); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", model.ErrTransientStore, err)
		}
		if err := json.Unmarshal([]byte(senders), &d.Senders); err != nil {
			return nil, fmt.Errorf("%w: decode senders: %v", model.ErrTransientStore, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
