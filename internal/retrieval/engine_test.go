package retrieval

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/embeddings/random"
	"github.com/mydrift-ai/mydrift/internal/model"
	"github.com/mydrift-ai/mydrift/internal/searchindex"
)

type fakeIndex struct {
	hits      []searchindex.Hit
	lastQuery searchindex.Query
}

func (f *fakeIndex) EnsureCollection(context.Context) error { return nil }
func (f *fakeIndex) Upsert(context.Context, []searchindex.Record) error {
	return nil
}
func (f *fakeIndex) Search(_ context.Context, q searchindex.Query) ([]searchindex.Hit, error) {
	f.lastQuery = q
	return f.hits, nil
}

type fakeStore struct {
	texts   map[string]string
	gotIDs  []string
	byIDErr error
}

func (f *fakeStore) EnsureCollection(context.Context) error { return nil }
func (f *fakeStore) EnsureIndexes(context.Context) error    { return nil }
func (f *fakeStore) BulkUpsert(context.Context, []model.ChunkDocument) (int, error) {
	return 0, nil
}
func (f *fakeStore) GetByIDs(_ context.Context, ids []string) ([]model.ChunkDocument, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	f.gotIDs = ids
	var out []model.ChunkDocument
	for _, id := range ids {
		if text, ok := f.texts[id]; ok {
			out = append(out, model.ChunkDocument{DocID: id, Text: text})
		}
	}
	return out, nil
}
func (f *fakeStore) Paginate(context.Context, int, int, []string) (*model.ChunkPage, error) {
	return &model.ChunkPage{}, nil
}
func (f *fakeStore) PageCount(context.Context, int, []string) (int, error) { return 0, nil }
func (f *fakeStore) DeleteByIDs(context.Context, []string) error           { return nil }

func newTestEngine(t *testing.T, idx *fakeIndex, msg, mail *fakeStore) *Engine {
	t.Helper()
	e, err := NewEngine(random.New(8), idx,
		map[string]docstore.Store{model.SourceMessage: msg, model.SourceMail: mail},
		[]string{model.SourceMessage, model.SourceMail}, zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestRetrieveMergesSources(t *testing.T) {
	idx := &fakeIndex{hits: []searchindex.Hit{
		{ID: "id-mail-1", Payload: map[string]any{"source": model.SourceMail}},
		{ID: "id-msg-1", Payload: map[string]any{"source": model.SourceMessage}},
		{ID: "id-msg-2", Payload: map[string]any{"source": model.SourceMessage}},
	}}
	msg := &fakeStore{texts: map[string]string{"id-msg-1": "from chat", "id-msg-2": "more chat"}}
	mail := &fakeStore{texts: map[string]string{"id-mail-1": "from mail"}}

	got, err := newTestEngine(t, idx, msg, mail).Retrieve(context.Background(), "query", 30, nil)
	require.NoError(t, err)
	// Sources in enumeration order, ids in rank order within a source.
	assert.Equal(t, "from chat more chat from mail", got)
	assert.Equal(t, 30, idx.lastQuery.Limit)
	assert.Equal(t, []string{"source"}, idx.lastQuery.Fields)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	e := newTestEngine(t, &fakeIndex{}, &fakeStore{}, &fakeStore{})
	got, err := e.Retrieve(context.Background(), "anything", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveSenderScope(t *testing.T) {
	idx := &fakeIndex{}
	e := newTestEngine(t, idx, &fakeStore{}, &fakeStore{})

	_, err := e.Retrieve(context.Background(), "q", 5, &Scope{Sender: "alice"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"senders": "alice"}, idx.lastQuery.Include)

	_, err = e.Retrieve(context.Background(), "q", 5, nil)
	require.NoError(t, err)
	assert.Nil(t, idx.lastQuery.Include)
}

func TestNewEngineRequiresStorePerSource(t *testing.T) {
	_, err := NewEngine(random.New(8), &fakeIndex{},
		map[string]docstore.Store{model.SourceMessage: &fakeStore{}},
		[]string{model.SourceMessage, model.SourceMail}, zerolog.Nop())
	assert.ErrorIs(t, err, model.ErrSetup)
}
