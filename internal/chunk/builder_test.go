package chunk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydrift-ai/mydrift/internal/model"
)

func makeDoc(n int) model.Document {
	doc := model.Document{
		Participants: []model.Participant{{Name: "alice"}, {Name: "bob"}},
	}
	for i := 0; i < n; i++ {
		doc.Messages = append(doc.Messages, model.Message{
			SenderName:  "alice",
			TimestampMs: int64(1000 + i),
			Content:     fmt.Sprintf("msg %d", i),
		})
	}
	return doc
}

func TestBuildWindowOffsets(t *testing.T) {
	tests := []struct {
		name       string
		messages   int
		windowSize int
		stride     int
		wantChunks int
	}{
		{"7 msgs w5 s3", 7, 5, 3, 1},
		{"7 msgs w5 s1", 7, 5, 1, 3},
		{"window larger than input", 3, 5, 1, 0},
		{"exact fit", 5, 5, 1, 1},
		{"empty input", 0, 5, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuilder([]int{tt.windowSize}, tt.stride)
			require.NoError(t, err)
			chunks := b.Build(makeDoc(tt.messages))
			assert.Len(t, chunks, tt.wantChunks)
		})
	}
}

func TestBuildMultipleWindowSizes(t *testing.T) {
	b, err := NewBuilder([]int{2, 3}, 1)
	require.NoError(t, err)
	// 4 messages: size 2 gives offsets 0,1,2; size 3 gives offsets 0,1.
	chunks := b.Build(makeDoc(4))
	assert.Len(t, chunks, 5)
}

func TestBuildChunkFields(t *testing.T) {
	b, err := NewBuilder([]int{2}, 1)
	require.NoError(t, err)

	doc := model.Document{
		Participants: []model.Participant{{Name: "bob"}, {Name: "alice"}},
		Messages: []model.Message{
			{SenderName: "bob", TimestampMs: 2000, Content: "later"},
			{SenderName: "alice", TimestampMs: 1000, Content: "earlier http://x.test/a"},
		},
	}
	chunks := b.Build(doc)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, int64(1000), c.StartTimestamp)
	assert.Equal(t, int64(2000), c.EndTimestamp)
	assert.Equal(t, []string{"bob", "alice"}, c.Senders)
	assert.Equal(t, model.SourceMessage, c.Source)
	assert.Equal(t, "alice: earlier [LINK]\nbob: later", c.Text)
	assert.Equal(t, WindowID(1000, 2000, []string{"alice", "bob"}), c.ChunkID)
}

func TestBuildSortStableOnTies(t *testing.T) {
	b, err := NewBuilder([]int{2}, 1)
	require.NoError(t, err)

	doc := model.Document{
		Participants: []model.Participant{{Name: "a"}},
		Messages: []model.Message{
			{SenderName: "a", TimestampMs: 1000, Content: "first"},
			{SenderName: "a", TimestampMs: 1000, Content: "second"},
		},
	}
	chunks := b.Build(doc)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a: first\na: second", chunks[0].Text)
}

func TestNewBuilderRejectsBadParams(t *testing.T) {
	_, err := NewBuilder(nil, 1)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = NewBuilder([]int{0}, 1)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = NewBuilder([]int{5}, 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}
