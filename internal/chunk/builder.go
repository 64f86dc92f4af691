// Package chunk turns time-ordered message streams into overlapping,
// content-addressed text windows ready for embedding.
package chunk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mydrift-ai/mydrift/internal/model"
	"github.com/mydrift-ai/mydrift/internal/textutil"
)

// Builder slides fixed-size windows with a stride over a document's messages.
// Several window sizes may be configured; each produces its own sliding pass
// over the same sequence, so one document yields chunks of mixed granularity.
type Builder struct {
	WindowSizes []int
	Stride      int
}

// NewBuilder validates the windowing parameters at construction time.
func NewBuilder(windowSizes []int, stride int) (*Builder, error) {
	if len(windowSizes) == 0 {
		return nil, fmt.Errorf("%w: at least one window size required", model.ErrValidation)
	}
	for _, w := range windowSizes {
		if w <= 0 {
			return nil, fmt.Errorf("%w: window size must be positive, got %d", model.ErrValidation, w)
		}
	}
	if stride <= 0 {
		return nil, fmt.Errorf("%w: stride must be positive, got %d", model.ErrValidation, stride)
	}
	return &Builder{WindowSizes: windowSizes, Stride: stride}, nil
}

// Build produces chunks for one document. Messages are sorted by timestamp
// (stable on ties); senders come from the document's participant list, not
// from window membership. An empty message list yields no chunks.
func (b *Builder) Build(doc model.Document) []model.Chunk {
	msgs := make([]model.Message, len(doc.Messages))
	copy(msgs, doc.Messages)
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].TimestampMs < msgs[j].TimestampMs })

	senders := make([]string, 0, len(doc.Participants))
	for _, p := range doc.Participants {
		senders = append(senders, textutil.RepairEncoding(p.Name))
	}

	var chunks []model.Chunk
	for _, w := range b.WindowSizes {
		for off := 0; off+w <= len(msgs); off += b.Stride {
			window := msgs[off : off+w]
			text := textutil.MaskURLs(textutil.RepairEncoding(mergeWindow(window)))
			chunks = append(chunks, model.Chunk{
				ChunkID:        WindowID(window[0].TimestampMs, window[w-1].TimestampMs, senders),
				Text:           text,
				StartTimestamp: window[0].TimestampMs,
				EndTimestamp:   window[w-1].TimestampMs,
				Senders:        senders,
				Source:         model.SourceMessage,
			})
		}
	}
	return chunks
}

func mergeWindow(msgs []model.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.SenderName + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}
