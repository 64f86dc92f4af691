package model

// Source tags identify where a chunk was ingested from. Retrieval uses them
// to route id lookups to the matching document store.
const (
	SourceMessage = "message"
	SourceMail    = "mail"
)

// Message is a single conversational utterance. It exists only during
// ingestion; chunks are the persisted unit.
type Message struct {
	SenderName  string `json:"sender_name"`
	TimestampMs int64  `json:"timestamp_ms"`
	Content     string `json:"content"`
}

// Participant is a display name attached to a conversation export.
type Participant struct {
	Name string `json:"name"`
}

// Document is one conversation thread or mailbox export: an ordered batch of
// messages sharing a participant set.
type Document struct {
	Messages     []Message     `json:"messages"`
	Participants []Participant `json:"participants"`
}

// Chunk is the atomic retrievable unit: an overlapping text window over a
// document's messages with a content-derived identity.
type Chunk struct {
	ChunkID        string    `json:"chunk_id"`
	Text           string    `json:"text"`
	StartTimestamp int64     `json:"start_timestamp"`
	EndTimestamp   int64     `json:"end_timestamp"`
	Senders        []string  `json:"senders"`
	Source         string    `json:"source"`
	Embedding      []float32 `json:"-"`
}

// ChunkDocument is the document-store projection of a chunk. DocID is the
// chunk id in stripped form (32 hex chars, no separators).
type ChunkDocument struct {
	DocID          string   `json:"doc_id"`
	StartTimestamp int64    `json:"start_timestamp"`
	EndTimestamp   int64    `json:"end_timestamp"`
	Senders        []string `json:"senders"`
	Text           string   `json:"text"`
}

// ChunkPage is one page of a paginated browse. An empty page is a valid
// result, not an error.
type ChunkPage struct {
	Chunks   []ChunkDocument `json:"chunks"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// IngestState tracks a document through the indexing pipeline.
type IngestState string

const (
	StateReceived  IngestState = "RECEIVED"
	StateChunked   IngestState = "CHUNKED"
	StateEmbedded  IngestState = "EMBEDDED"
	StateWriting   IngestState = "WRITING"
	StateCompleted IngestState = "COMPLETED"
	StateFailed    IngestState = "FAILED"
)

// ProgressEvent is one element of the ingestion progress stream. Ratio is
// monotonically non-decreasing across the run; Err is set only on FAILED
// events and names the offending document without aborting its siblings.
type ProgressEvent struct {
	Document int         `json:"document"`
	State    IngestState `json:"state"`
	Chunks   int         `json:"chunks"`
	Ratio    float64     `json:"ratio"`
	Err      error       `json:"-"`
}
