package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mydrift-ai/mydrift/internal/chunk"
	"github.com/mydrift-ai/mydrift/internal/model"
	"github.com/mydrift-ai/mydrift/internal/pipeline"
	"github.com/mydrift-ai/mydrift/internal/services"
)

func runInit(ctx context.Context, a *app, out io.Writer) error {
	if err := a.index.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("vector collection: %w", err)
	}
	for src, st := range a.stores {
		if err := st.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("%s document collection: %w", src, err)
		}
		if err := st.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("%s document indexes: %w", src, err)
		}
	}
	fmt.Fprintln(out, "collections ready")
	return nil
}

func runIndex(ctx context.Context, a *app, path string, dryRun bool, batchSize int, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	docs, err := services.LoadExport(f)
	if err != nil {
		return err
	}

	builder, err := chunk.NewBuilder(a.cfg.WindowSizes, a.cfg.Stride)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithBatchSize(a.cfg.BatchSize), pipeline.WithDryRun(dryRun)}
	if batchSize > 0 {
		opts = append(opts, pipeline.WithBatchSize(batchSize))
	}
	indexer := pipeline.NewIndexer(builder, a.enc, a.index, a.stores[model.SourceMessage], a.log, opts...)
	svc := services.NewIngestService(indexer)

	failed := 0
	for ev := range svc.Ingest(ctx, docs) {
		switch ev.State {
		case model.StateFailed:
			failed++
			fmt.Fprintf(out, "document %d: FAILED: %v\n", ev.Document, ev.Err)
		case model.StateCompleted:
			fmt.Fprintf(out, "document %d: %d chunks indexed (%.0f%%)\n", ev.Document, ev.Chunks, ev.Ratio*100)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(docs))
	}
	return nil
}

func runDelete(ctx context.Context, a *app, source string, ids []string, out io.Writer) error {
	svc := services.NewBrowseService(a.stores)
	if err := svc.Delete(ctx, source, ids); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %d ids from %s\n", len(ids), source)
	return nil
}
