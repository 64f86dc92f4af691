package searchindex

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-openapi/strfmt"
	"github.com/rs/zerolog"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/mydrift-ai/mydrift/internal/model"
)

// weavIndex implements Index on the Weaviate Go client.
type weavIndex struct {
	client *weaviate.Client
	cfg    CollectionConfig
	log    zerolog.Logger
}

// NewWeaviateIndex constructs an Index for one collection at baseURL
// (host:port, no scheme). The config is validated before any call is made.
func NewWeaviateIndex(baseURL string, cfg CollectionConfig, log zerolog.Logger) (Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cl, err := weaviate.NewClient(weaviate.Config{Scheme: "http", Host: baseURL})
	if err != nil {
		return nil, fmt.Errorf("%w: weaviate client: %v", model.ErrSetup, err)
	}
	return &weavIndex{client: cl, cfg: cfg, log: log}, nil
}

// EnsureCollection creates the class if absent. Vectors are supplied by the
// caller, so the class carries no vectorizer; hnsw tuning comes from the
// collection config.
func (w *weavIndex) EnsureCollection(ctx context.Context) error {
	name := w.cfg.ClassName()
	exists, err := w.client.Schema().ClassExistenceChecker().WithClassName(name).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: check class %s: %v", model.ErrSetup, name, err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:           name,
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
		VectorIndexConfig: map[string]any{
			"distance":       w.cfg.Distance,
			"maxConnections": w.cfg.MaxConnections,
			"efConstruction": w.cfg.EFConstruction,
		},
		Properties: []*models.Property{
			{Name: "source", DataType: []string{"text"}},
			{Name: "start_timestamp", DataType: []string{"int"}},
			{Name: "end_timestamp", DataType: []string{"int"}},
			{Name: "senders", DataType: []string{"text[]"}},
			{Name: "text", DataType: []string{"text"}},
		},
	}
	if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("%w: create class %s: %v", model.ErrSetup, name, err)
	}
	w.log.Info().Str("class", name).Int("dim", w.cfg.VectorDim).Msg("vector collection created")
	return nil
}

// Upsert writes one bounded batch of records by id. Repeating a batch
// replaces the same objects, so retried ingestion never duplicates.
func (w *weavIndex) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	objs := make([]*models.Object, len(records))
	for i, r := range records {
		if len(r.Vector) != w.cfg.VectorDim {
			return fmt.Errorf("%w: record %s has dimension %d, want %d",
				model.ErrValidation, r.ID, len(r.Vector), w.cfg.VectorDim)
		}
		objs[i] = &models.Object{
			Class:      w.cfg.ClassName(),
			ID:         strfmt.UUID(r.ID),
			Properties: r.Payload,
			Vector:     models.C11yVector(r.Vector),
		}
	}

	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: batch upsert: %v", model.ErrTransientStore, err)
	}
	for _, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			return fmt.Errorf("%w: batch upsert object %s: %s",
				model.ErrTransientStore, item.ID, item.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// Search runs a nearVector query with the configured filters, returning hits
// above the certainty threshold ranked by score descending.
func (w *weavIndex) Search(ctx context.Context, q Query) ([]Hit, error) {
	near := (&gql.NearVectorArgumentBuilder{}).
		WithVector(q.Vector).
		WithCertainty(q.ScoreThreshold)

	fields := make([]gql.Field, 0, len(q.Fields)+1)
	for _, f := range q.Fields {
		fields = append(fields, gql.Field{Name: f})
	}
	fields = append(fields, gql.Field{Name: "_additional", Fields: []gql.Field{
		{Name: "id"}, {Name: "certainty"},
	}})

	req := w.client.GraphQL().Get().
		WithClassName(w.cfg.ClassName()).
		WithNearVector(near).
		WithLimit(q.Limit).
		WithFields(fields...)
	if q.Offset > 0 {
		req = req.WithOffset(q.Offset)
	}
	if where := buildWhere(q.Include, q.Exclude); where != nil {
		req = req.WithWhere(where)
	}

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", model.ErrTransientStore, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: search: %s", model.ErrTransientStore, resp.Errors[0].Message)
	}

	getData, ok := resp.Data["Get"].(map[string]any)
	if !ok {
		return []Hit{}, nil
	}
	raw, ok := getData[w.cfg.ClassName()].([]any)
	if !ok {
		return []Hit{}, nil
	}

	hits := make([]Hit, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		hit := Hit{Payload: map[string]any{}}
		if add, ok := m["_additional"].(map[string]any); ok {
			hit.ID, _ = add["id"].(string)
			switch v := add["certainty"].(type) {
			case float64:
				hit.Score = v
			case string:
				hit.Score, _ = strconv.ParseFloat(v, 64)
			}
		}
		for _, f := range q.Fields {
			hit.Payload[f] = m[f]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildWhere translates include/exclude maps to a weaviate where filter.
// Scalars become Equal/NotEqual conditions; slices become ContainsAny for
// includes and ANDed NotEqual conditions for excludes.
func buildWhere(include, exclude map[string]any) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	for field, value := range include {
		operands = append(operands, fieldCondition(field, value, false)...)
	}
	for field, value := range exclude {
		operands = append(operands, fieldCondition(field, value, true)...)
	}
	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

func fieldCondition(field string, value any, negate bool) []*filters.WhereBuilder {
	cond := func(op filters.WhereOperator) *filters.WhereBuilder {
		return filters.Where().WithPath([]string{field}).WithOperator(op)
	}
	eq, neq := filters.Equal, filters.NotEqual

	switch v := value.(type) {
	case []string:
		if !negate {
			return []*filters.WhereBuilder{cond(filters.ContainsAny).WithValueText(v...)}
		}
		out := make([]*filters.WhereBuilder, 0, len(v))
		for _, s := range v {
			out = append(out, cond(neq).WithValueText(s))
		}
		return out
	case string:
		if negate {
			return []*filters.WhereBuilder{cond(neq).WithValueText(v)}
		}
		return []*filters.WhereBuilder{cond(eq).WithValueText(v)}
	case int:
		if negate {
			return []*filters.WhereBuilder{cond(neq).WithValueInt(int64(v))}
		}
		return []*filters.WhereBuilder{cond(eq).WithValueInt(int64(v))}
	case int64:
		if negate {
			return []*filters.WhereBuilder{cond(neq).WithValueInt(v)}
		}
		return []*filters.WhereBuilder{cond(eq).WithValueInt(v)}
	default:
		if negate {
			return []*filters.WhereBuilder{cond(neq).WithValueText(fmt.Sprint(v))}
		}
		return []*filters.WhereBuilder{cond(eq).WithValueText(fmt.Sprint(v))}
	}
}
