package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mydrift-ai/mydrift/internal/model"
	"github.com/mydrift-ai/mydrift/internal/pipeline"
)

// IngestService runs conversation exports through the indexing pipeline.
type IngestService struct {
	indexer *pipeline.Indexer
}

func NewIngestService(indexer *pipeline.Indexer) *IngestService {
	return &IngestService{indexer: indexer}
}

// Ingest streams per-document progress; the channel closes when every
// document has reached COMPLETED or FAILED.
func (s *IngestService) Ingest(ctx context.Context, docs []model.Document) <-chan model.ProgressEvent {
	return s.indexer.Run(ctx, docs)
}

// LoadExport decodes a conversation export. Both shapes in the wild are
// accepted: a single document object, or an array of documents.
func LoadExport(r io.Reader) ([]model.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			var docs []model.Document
			if err := json.Unmarshal(raw, &docs); err != nil {
				return nil, fmt.Errorf("%w: parse export: %v", model.ErrValidation, err)
			}
			return docs, nil
		default:
			var doc model.Document
			if err := json.Unmarshal(raw, &doc); err != nil {
				return nil, fmt.Errorf("%w: parse export: %v", model.ErrValidation, err)
			}
			return []model.Document{doc}, nil
		}
	}
	return nil, fmt.Errorf("%w: empty export", model.ErrValidation)
}
