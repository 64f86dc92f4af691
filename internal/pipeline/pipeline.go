// Package pipeline orchestrates ingestion: chunking, batch embedding, and
// the concurrent dual-write into the vector index and the document store.
//
// There is no transaction across the two stores. Both sides upsert by
// content-derived chunk id, so recovery from a partial write is re-running
// ingestion for the same source document, never rolling back.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mydrift-ai/mydrift/internal/chunk"
	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/embeddings"
	"github.com/mydrift-ai/mydrift/internal/model"
	"github.com/mydrift-ai/mydrift/internal/searchindex"
)

// DefaultBatchSize bounds one upsert batch to respect transport limits.
const DefaultBatchSize = 250

// Indexer drives ingestion for one source into one index/store pair.
type Indexer struct {
	builder   *chunk.Builder
	enc       embeddings.Provider
	index     searchindex.Index
	store     docstore.Store
	batchSize int
	dryRun    bool
	log       zerolog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithDryRun chunks and embeds but skips all writes.
func WithDryRun(dry bool) Option {
	return func(ix *Indexer) { ix.dryRun = dry }
}

// NewIndexer wires the ingestion pipeline for the message source.
func NewIndexer(builder *chunk.Builder, enc embeddings.Provider, index searchindex.Index,
	store docstore.Store, log zerolog.Logger, opts ...Option) *Indexer {
	ix := &Indexer{
		builder:   builder,
		enc:       enc,
		index:     index,
		store:     store,
		batchSize: DefaultBatchSize,
		log:       log,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Run processes documents in request order and streams progress events.
// The channel closes when the run is over. A malformed document emits a
// FAILED event and its siblings continue. Cancelling ctx stops the run after
// the batch currently in flight; completed writes stay, which is safe because
// re-ingestion overwrites the same ids.
func (ix *Indexer) Run(ctx context.Context, documents []model.Document) <-chan model.ProgressEvent {
	events := make(chan model.ProgressEvent)
	go func() {
		defer close(events)
		ix.run(ctx, documents, events)
	}()
	return events
}

func (ix *Indexer) run(ctx context.Context, documents []model.Document, events chan<- model.ProgressEvent) {
	total := len(documents)
	for i, doc := range documents {
		if ctx.Err() != nil {
			return
		}
		if !emit(ctx, events, model.ProgressEvent{Document: i, State: model.StateReceived, Ratio: ratio(i, 0, total)}) {
			return
		}

		chunks, err := ix.prepare(ctx, i, doc)
		if err != nil {
			ix.log.Warn().Err(err).Int("document", i).Msg("document rejected")
			if !emit(ctx, events, model.ProgressEvent{Document: i, State: model.StateFailed, Err: err, Ratio: ratio(i+1, 0, total)}) {
				return
			}
			continue
		}
		if !emit(ctx, events, model.ProgressEvent{Document: i, State: model.StateChunked, Chunks: len(chunks), Ratio: ratio(i, 0, total)}) {
			return
		}
		if len(chunks) == 0 {
			// Nothing text-bearing; zero contribution, not an error.
			if !emit(ctx, events, model.ProgressEvent{Document: i, State: model.StateCompleted, Ratio: ratio(i+1, 0, total)}) {
				return
			}
			continue
		}

		if err := ix.embed(ctx, chunks); err != nil {
			if !emit(ctx, events, model.ProgressEvent{Document: i, State: model.StateFailed, Chunks: len(chunks), Err: err, Ratio: ratio(i+1, 0, total)}) {
				return
			}
			continue
		}
		if !emit(ctx, events, model.ProgressEvent{Document: i, State: model.StateEmbedded, Chunks: len(chunks), Ratio: ratio(i, 0, total)}) {
			return
		}

		if ix.dryRun {
			if !emit(ctx, events, model.ProgressEvent{Document: i, State: model.StateCompleted, Chunks: len(chunks), Ratio: ratio(i+1, 0, total)}) {
				return
			}
			continue
		}

		if !emit(ctx, events, model.ProgressEvent{Document: i, State: model.StateWriting, Chunks: len(chunks), Ratio: ratio(i, 0, total)}) {
			return
		}
		if ok := ix.write(ctx, i, total, chunks, events); !ok {
			return
		}
	}
}

// prepare validates and chunks one document.
func (ix *Indexer) prepare(_ context.Context, docIdx int, doc model.Document) ([]model.Chunk, error) {
	textMessages := make([]model.Message, 0, len(doc.Messages))
	for mi, m := range doc.Messages {
		if m.Content == "" {
			// Non-text message (attachment, reaction); skipped, not an error.
			continue
		}
		if m.SenderName == "" || m.TimestampMs <= 0 {
			return nil, fmt.Errorf("%w: document %d message %d missing sender or timestamp",
				model.ErrValidation, docIdx, mi)
		}
		textMessages = append(textMessages, m)
	}
	filtered := doc
	filtered.Messages = textMessages
	return ix.builder.Build(filtered), nil
}

// embed encodes all chunk texts of one document in a single batch call.
func (ix *Indexer) embed(ctx context.Context, chunks []model.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.enc.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: encoder returned %d vectors for %d chunks",
			model.ErrValidation, len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}

// write splits chunks into bounded batches and writes each batch to the
// vector index and the document store concurrently. Both outcomes are
// observed before a batch counts as committed.
func (ix *Indexer) write(ctx context.Context, docIdx, totalDocs int, chunks []model.Chunk, events chan<- model.ProgressEvent) bool {
	batches := splitBatches(chunks, ix.batchSize)
	for bi, batch := range batches {
		if ctx.Err() != nil {
			return false
		}
		if err := WriteBatch(ctx, ix.index, ix.store, batch); err != nil {
			ix.log.Error().Err(err).Int("document", docIdx).Int("batch", bi).Msg("batch write failed")
			return emit(ctx, events, model.ProgressEvent{
				Document: docIdx, State: model.StateFailed, Chunks: len(chunks), Err: err,
				Ratio: ratio(docIdx, float64(bi)/float64(len(batches)), totalDocs),
			})
		}
		if !emit(ctx, events, model.ProgressEvent{
			Document: docIdx, State: model.StateWriting, Chunks: len(chunks),
			Ratio: ratio(docIdx, float64(bi+1)/float64(len(batches)), totalDocs),
		}) {
			return false
		}
	}
	return emit(ctx, events, model.ProgressEvent{
		Document: docIdx, State: model.StateCompleted, Chunks: len(chunks),
		Ratio: ratio(docIdx+1, 0, totalDocs),
	})
}

// WriteBatch issues the paired upserts for one bounded chunk batch. It is
// shared with the mail importer so every source commits through the same
// dual-write path.
func WriteBatch(ctx context.Context, index searchindex.Index, store docstore.Store, batch []model.Chunk) error {
	records := make([]searchindex.Record, len(batch))
	docs := make([]model.ChunkDocument, len(batch))
	for i, c := range batch {
		records[i] = searchindex.Record{ID: c.ChunkID, Vector: c.Embedding, Payload: indexPayload(c)}
		docs[i] = model.ChunkDocument{
			DocID:          c.ChunkID,
			StartTimestamp: c.StartTimestamp,
			EndTimestamp:   c.EndTimestamp,
			Senders:        c.Senders,
			Text:           c.Text,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := index.Upsert(gctx, records); err != nil {
			return fmt.Errorf("vector index: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n, err := store.BulkUpsert(gctx, docs)
		if err != nil {
			return fmt.Errorf("document store: %w", err)
		}
		if n != len(docs) {
			return fmt.Errorf("%w: document store wrote %d of %d", model.ErrTransientStore, n, len(docs))
		}
		return nil
	})
	return g.Wait()
}

// indexPayload is the filterable projection persisted with each vector.
// Message chunks carry the denormalized fields; other sources only the tag.
func indexPayload(c model.Chunk) map[string]any {
	if c.Source != model.SourceMessage {
		return map[string]any{"source": c.Source}
	}
	return map[string]any{
		"source":          c.Source,
		"start_timestamp": c.StartTimestamp,
		"end_timestamp":   c.EndTimestamp,
		"senders":         c.Senders,
		"text":            c.Text,
	}
}

func splitBatches(chunks []model.Chunk, size int) [][]model.Chunk {
	var out [][]model.Chunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		out = append(out, chunks[start:end])
	}
	return out
}

// ratio maps (documents done, fraction of current document) to a monotone
// progress number in [0,1].
func ratio(docsDone int, frac float64, totalDocs int) float64 {
	if totalDocs == 0 {
		return 1
	}
	return (float64(docsDone) + frac) / float64(totalDocs)
}

// emit delivers an event unless the consumer has gone away.
func emit(ctx context.Context, events chan<- model.ProgressEvent, ev model.ProgressEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
