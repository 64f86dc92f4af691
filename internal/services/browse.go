package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/model"
)

// BrowseService exposes the document stores for paginated inspection and
// targeted deletion, keyed by ingestion source.
type BrowseService struct {
	stores map[string]docstore.Store
}

func NewBrowseService(stores map[string]docstore.Store) *BrowseService {
	return &BrowseService{stores: stores}
}

func (s *BrowseService) store(source string) (docstore.Store, error) {
	st, ok := s.stores[source]
	if !ok {
		return nil, fmt.Errorf("%w: no document store for source %q", model.ErrSetup, source)
	}
	return st, nil
}

// Browse returns one page of chunks for a source, oldest first. senders, when
// non-empty, keeps only chunks involving ALL listed senders.
func (s *BrowseService) Browse(ctx context.Context, source string, page, pageSize int, senders []string) (*model.ChunkPage, error) {
	st, err := s.store(source)
	if err != nil {
		return nil, err
	}
	return st.Paginate(ctx, page, pageSize, senders)
}

// PageCount reports how many pages Browse would serve under the same filter.
func (s *BrowseService) PageCount(ctx context.Context, source string, pageSize int, senders []string) (int, error) {
	st, err := s.store(source)
	if err != nil {
		return 0, err
	}
	return st.PageCount(ctx, pageSize, senders)
}

// Delete removes chunks by id from a source's document store. Unknown ids
// are ignored.
func (s *BrowseService) Delete(ctx context.Context, source string, ids []string) error {
	st, err := s.store(source)
	if err != nil {
		return err
	}
	return st.DeleteByIDs(ctx, ids)
}

// ParseSenders splits a comma-joined senders flag into a filter list,
// dropping empty segments.
func ParseSenders(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
