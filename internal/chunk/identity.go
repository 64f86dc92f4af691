package chunk

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Chunk identity is a content hash over the window's natural key, rendered in
// canonical dashed UUID form because the vector index requires UUID ids.
// Document stores persist the stripped 32-hex form; StripID converts.
//
// md5 is used as a fast 128-bit digest, not for security: the only
// requirement is that independently rebuilt windows with the same key
// collide to the same id so re-ingestion overwrites instead of duplicating.

// WindowID derives the id for a message window. Sender order is irrelevant.
func WindowID(startTs, endTs int64, senders []string) string {
	sorted := make([]string, len(senders))
	copy(sorted, senders)
	sort.Strings(sorted)
	key := fmt.Sprintf("%d-%d-%s", startTs, endTs, strings.Join(sorted, "-"))
	return hashID(key)
}

// MailID derives the id for an imported mail item from its date bucket and
// source message id.
func MailID(onDate, messageID string) string {
	return hashID(onDate + "-" + messageID)
}

// StripID removes separator characters, yielding the document-store form.
func StripID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

func hashID(key string) string {
	return uuid.UUID(md5.Sum([]byte(key))).String()
}
