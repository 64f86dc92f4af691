package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydrift-ai/mydrift/internal/chunk"
	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/model"
)

func newTestStore(t *testing.T) docstore.Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "docstore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(db, docstore.CollectionConfig{BaseName: "chat_collection", Version: "2025-04-03"})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx))
	require.NoError(t, s.EnsureIndexes(ctx))
	return s
}

func testDoc(i int, senders ...string) model.ChunkDocument {
	if len(senders) == 0 {
		senders = []string{"alice", "bob"}
	}
	return model.ChunkDocument{
		DocID:          chunk.WindowID(int64(1000+i), int64(2000+i), senders),
		StartTimestamp: int64(1000 + i),
		EndTimestamp:   int64(2000 + i),
		Senders:        senders,
		Text:           fmt.Sprintf("chunk %d", i),
	}
}

func TestBulkUpsertRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc(0)
	n, err := s.BulkUpsert(ctx, []model.ChunkDocument{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Dashed and stripped id forms both resolve.
	got, err := s.GetByIDs(ctx, []string{doc.DocID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, doc.Text, got[0].Text)
	assert.Equal(t, doc.Senders, got[0].Senders)
	assert.Equal(t, chunk.StripID(doc.DocID), got[0].DocID)

	got, err = s.GetByIDs(ctx, []string{chunk.StripID(doc.DocID)})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestBulkUpsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []model.ChunkDocument{testDoc(0), testDoc(1), testDoc(2)}
	_, err := s.BulkUpsert(ctx, docs)
	require.NoError(t, err)
	_, err = s.BulkUpsert(ctx, docs)
	require.NoError(t, err)

	count, err := s.PageCount(ctx, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	page, err := s.Paginate(ctx, 1, 10, nil)
	require.NoError(t, err)
	assert.Len(t, page.Chunks, 3)
}

func TestPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var docs []model.ChunkDocument
	for i := 0; i < 7; i++ {
		docs = append(docs, testDoc(i))
	}
	_, err := s.BulkUpsert(ctx, docs)
	require.NoError(t, err)

	count, err := s.PageCount(ctx, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Pages are ordered by start_timestamp ascending.
	page1, err := s.Paginate(ctx, 1, 3, nil)
	require.NoError(t, err)
	require.Len(t, page1.Chunks, 3)
	assert.Equal(t, int64(1000), page1.Chunks[0].StartTimestamp)

	page3, err := s.Paginate(ctx, 3, 3, nil)
	require.NoError(t, err)
	assert.Len(t, page3.Chunks, 1)

	// Beyond the last page: empty result, not an error.
	page4, err := s.Paginate(ctx, 4, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, page4.Chunks)
	assert.Equal(t, 4, page4.Page)
}

func TestPaginateSendersRequiresAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.BulkUpsert(ctx, []model.ChunkDocument{
		testDoc(0, "alice", "bob"),
		testDoc(1, "alice"),
		testDoc(2, "carol"),
	})
	require.NoError(t, err)

	page, err := s.Paginate(ctx, 1, 10, []string{"alice", "bob"})
	require.NoError(t, err)
	require.Len(t, page.Chunks, 1)
	assert.Equal(t, []string{"alice", "bob"}, page.Chunks[0].Senders)

	page, err = s.Paginate(ctx, 1, 10, []string{"alice"})
	require.NoError(t, err)
	assert.Len(t, page.Chunks, 2)

	count, err := s.PageCount(ctx, 10, []string{"alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	page, err = s.Paginate(ctx, 1, 10, []string{"nobody"})
	require.NoError(t, err)
	assert.Empty(t, page.Chunks)
}

func TestDeleteByIDsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc(0)
	_, err := s.BulkUpsert(ctx, []model.ChunkDocument{doc})
	require.NoError(t, err)

	require.NoError(t, s.DeleteByIDs(ctx, []string{doc.DocID}))
	got, err := s.GetByIDs(ctx, []string{doc.DocID})
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting unknown ids is not an error.
	require.NoError(t, s.DeleteByIDs(ctx, []string{doc.DocID}))
	require.NoError(t, s.DeleteByIDs(ctx, nil))
}

func TestPaginateRejectsBadPage(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Paginate(context.Background(), 0, 10, nil)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = s.PageCount(context.Background(), 0, nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}
