package factory

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mydrift-ai/mydrift/internal/config"
	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/docstore/postgres"
	"github.com/mydrift-ai/mydrift/internal/docstore/sqlite"
	"github.com/mydrift-ai/mydrift/internal/model"
)

// ChatCollection names the versioned conversation chunk collection.
func ChatCollection() docstore.CollectionConfig {
	return docstore.CollectionConfig{BaseName: "chat_collection", Version: "2025-04-03"}
}

// MailCollection names the versioned mail chunk collection.
func MailCollection() docstore.CollectionConfig {
	return docstore.CollectionConfig{BaseName: "gmail_collection", Version: "2025-04-08"}
}

// NewDocumentStores opens the configured database and returns one document
// store per ingestion source, plus a close func for the shared connection.
func NewDocumentStores(cfg *config.Config, log zerolog.Logger) (map[string]docstore.Store, func() error, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.DocStoreDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("MYDRIFT_POSTGRES_DSN is required when DOCSTORE_DRIVER=postgres")
		}
		db, err = postgres.Open(cfg.PostgresDSN)
	case "sqlite":
		db, err = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, nil, fmt.Errorf("unknown DOCSTORE_DRIVER: %s", cfg.DocStoreDriver)
	}
	if err != nil {
		return nil, nil, err
	}

	newStore := func(c docstore.CollectionConfig) (docstore.Store, error) {
		if cfg.DocStoreDriver == "postgres" {
			return postgres.New(db, c)
		}
		return sqlite.New(db, c)
	}

	stores := make(map[string]docstore.Store, 2)
	for src, coll := range map[string]docstore.CollectionConfig{
		model.SourceMessage: ChatCollection(),
		model.SourceMail:    MailCollection(),
	} {
		st, err := newStore(coll)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		stores[src] = st
	}

	log.Debug().Str("driver", cfg.DocStoreDriver).Msg("document stores ready")
	return stores, db.Close, nil
}
