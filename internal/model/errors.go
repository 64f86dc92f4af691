package model

import "errors"

// Error taxonomy for the indexing and retrieval pipeline. Callers match with
// errors.Is; wrapping sites add context with fmt.Errorf("…: %w", …).
var (
	// ErrSetup marks failed collection or index creation. Fatal for that
	// collection; surfaced to the operator, never retried automatically.
	ErrSetup = errors.New("setup error")

	// ErrValidation marks a malformed input document. Isolated to the
	// offending document; sibling documents continue.
	ErrValidation = errors.New("validation error")

	// ErrTransientStore marks a failed batch write. Safe to retry by
	// re-running ingestion for the same source document.
	ErrTransientStore = errors.New("transient store error")

	// ErrUpstreamGeneration marks a language-model backend failure
	// mid-stream, distinguishable from normal end-of-stream.
	ErrUpstreamGeneration = errors.New("upstream generation error")

	// ErrNotFound is returned for lookups that matched nothing where the
	// contract requires distinguishing absence from an empty result.
	ErrNotFound = errors.New("not found")
)
