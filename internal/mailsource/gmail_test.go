package mailsource

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(s))
}

func TestExtractPlainTextDirect(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: b64("hello world")},
	}
	assert.Equal(t, "hello world", ExtractPlainText(payload))
}

func TestExtractPlainTextFromParts(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{MimeType: "image/png", Body: &gmail.MessagePartBody{Data: b64("binary")}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("the body")}},
		},
	}
	assert.Equal(t, "the body", ExtractPlainText(payload))
}

func TestExtractPlainTextFromHTML(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{
				Data: b64("<html><body><p>rendered</p><script>junk()</script></body></html>"),
			}},
		},
	}
	got := ExtractPlainText(payload)
	assert.Contains(t, got, "rendered")
	assert.NotContains(t, got, "junk")
}

func TestExtractPlainTextNested(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("nested body")}},
				},
			},
		},
	}
	assert.Equal(t, "nested body", ExtractPlainText(payload))
}

func TestExtractPlainTextEmpty(t *testing.T) {
	assert.Empty(t, ExtractPlainText(nil))
	assert.Empty(t, ExtractPlainText(&gmail.MessagePart{MimeType: "multipart/mixed"}))
}

func TestCleanEmptyLines(t *testing.T) {
	assert.Equal(t, "a\nb", CleanEmptyLines("a\n\n\n\nb"))
	assert.Equal(t, "a\n\nb", CleanEmptyLines("a\n\nb"))
	assert.Equal(t, "a", CleanEmptyLines("  a  \n\n\n"))
}

func TestIsNoise(t *testing.T) {
	assert.True(t, IsNoise(""))
	assert.True(t, IsNoise("   "))
	assert.True(t, IsNoise("??? ??"))
	assert.False(t, IsNoise("real content"))
	assert.False(t, IsNoise("what?"))
}

func TestDateBucket(t *testing.T) {
	// 2025-04-08 23:00 UTC is already 2025-04-09 in the +08:00 bucket zone.
	assert.Equal(t, "2025-04-09", DateBucket(1744153200000))
	// The same instant always lands in the same bucket.
	assert.Equal(t, DateBucket(1744153200000), DateBucket(1744153200000))
}

func TestStripHTMLFallback(t *testing.T) {
	// html.Parse is lenient; plain text passes through.
	assert.Equal(t, "just text", StripHTML("just text"))
}
