// Package mailsource imports mail into memory through the same dual-write
// path as chat ingestion. Account authorization happens elsewhere; the
// importer only consumes a ready token.
package mailsource

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mydrift-ai/mydrift/internal/chunk"
	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/embeddings"
	"github.com/mydrift-ai/mydrift/internal/model"
	"github.com/mydrift-ai/mydrift/internal/pipeline"
	"github.com/mydrift-ai/mydrift/internal/searchindex"
)

// DefaultMaxResults bounds one import run.
const DefaultMaxResults = 100

// Mail date buckets use a fixed +08:00 offset; ids derived from them must
// not move when the host timezone changes.
var bucketZone = time.FixedZone("UTC+8", 8*60*60)

var emptyLines = regexp.MustCompile(`\n{3,}`)

// Importer fetches mail, extracts plain text, and indexes each item as one
// chunk with a natural-key identity (date bucket + message id).
type Importer struct {
	svc        *gmail.Service
	enc        embeddings.Provider
	index      searchindex.Index
	store      docstore.Store
	batchSize  int
	maxResults int64
	labelIDs   []string
	query      string
	log        zerolog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithMaxResults bounds the number of fetched messages.
func WithMaxResults(n int64) Option {
	return func(im *Importer) {
		if n > 0 {
			im.maxResults = n
		}
	}
}

// WithLabels restricts the import to the given label ids (default INBOX).
func WithLabels(labels ...string) Option {
	return func(im *Importer) { im.labelIDs = labels }
}

// WithQuery applies a mailbox search filter to the listing.
func WithQuery(q string) Option {
	return func(im *Importer) { im.query = q }
}

// NewImporter builds an importer over an authorized token source.
func NewImporter(ctx context.Context, ts oauth2.TokenSource, enc embeddings.Provider,
	index searchindex.Index, store docstore.Store, log zerolog.Logger, opts ...Option) (*Importer, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("%w: gmail service: %v", model.ErrSetup, err)
	}
	im := &Importer{
		svc:        svc,
		enc:        enc,
		index:      index,
		store:      store,
		batchSize:  pipeline.DefaultBatchSize,
		maxResults: DefaultMaxResults,
		labelIDs:   []string{"INBOX"},
		log:        log,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im, nil
}

// Import fetches recent mail, embeds it, and dual-writes the chunks.
// Returns the number of items indexed.
func (im *Importer) Import(ctx context.Context) (int, error) {
	chunks, err := im.fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := im.enc.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed mail: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: encoder returned %d vectors for %d items",
			model.ErrValidation, len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	written := 0
	for start := 0; start < len(chunks); start += im.batchSize {
		end := min(start+im.batchSize, len(chunks))
		if err := pipeline.WriteBatch(ctx, im.index, im.store, chunks[start:end]); err != nil {
			return written, err
		}
		written += end - start
	}
	im.log.Info().Int("items", written).Msg("mail import completed")
	return written, nil
}

func (im *Importer) fetch(ctx context.Context) ([]model.Chunk, error) {
	listing, err := im.svc.Users.Messages.List("me").
		LabelIds(im.labelIDs...).
		MaxResults(im.maxResults).
		Q(im.query).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: list mail: %v", model.ErrTransientStore, err)
	}

	var chunks []model.Chunk
	for _, ref := range listing.Messages {
		msg, err := im.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("%w: get mail %s: %v", model.ErrTransientStore, ref.Id, err)
		}
		text := ExtractPlainText(msg.Payload)
		text = CleanEmptyLines(text)
		if IsNoise(text) {
			continue
		}
		bucket := DateBucket(msg.InternalDate)
		chunks = append(chunks, model.Chunk{
			ChunkID:        chunk.MailID(bucket, msg.Id),
			Text:           text,
			StartTimestamp: msg.InternalDate,
			EndTimestamp:   msg.InternalDate,
			Senders:        fromAddresses(msg.Payload),
			Source:         model.SourceMail,
		})
	}
	return chunks, nil
}

// ExtractPlainText walks a message payload for the first usable body: a
// text/plain part directly, or a text/html part stripped to text.
func ExtractPlainText(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.MimeType == "text/plain" && payload.Body != nil {
		return decodeBody(payload.Body.Data)
	}
	for _, part := range payload.Parts {
		switch part.MimeType {
		case "text/plain":
			if part.Body != nil {
				return decodeBody(part.Body.Data)
			}
		case "text/html":
			if part.Body != nil {
				return StripHTML(decodeBody(part.Body.Data))
			}
		default:
			// multipart/alternative and friends nest one level deeper.
			if nested := ExtractPlainText(part); nested != "" {
				return nested
			}
		}
	}
	return ""
}

// CleanEmptyLines collapses runs of blank lines and trims the result.
func CleanEmptyLines(text string) string {
	return strings.TrimSpace(emptyLines.ReplaceAllString(text, "\n"))
}

// IsNoise reports bodies with no indexable content: empty, or all
// placeholder question marks left over from stripped encodings.
func IsNoise(text string) bool {
	stripped := strings.ReplaceAll(text, " ", "")
	if stripped == "" {
		return true
	}
	for _, r := range stripped {
		if r != '?' {
			return false
		}
	}
	return true
}

// DateBucket renders a ms-epoch timestamp as the YYYY-MM-DD identity bucket.
func DateBucket(internalDate int64) string {
	return time.UnixMilli(internalDate).In(bucketZone).Format("2006-01-02")
}

func decodeBody(data string) string {
	raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(raw)
}

func fromAddresses(payload *gmail.MessagePart) []string {
	if payload == nil {
		return nil
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, "From") {
			return []string{h.Value}
		}
	}
	return nil
}
