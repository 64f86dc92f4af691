// Package textutil normalizes chunk text before indexing: it repairs chat
// exports that were decoded under a single-byte codec and masks URLs.
package textutil

import (
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// LinkMarker replaces every URL token in chunk text.
const LinkMarker = "[LINK]"

var urlPattern = regexp.MustCompile(`https?://\S+`)

// RepairEncoding undoes a historical Latin-1 mis-decode: exports written as
// UTF-8 but read byte-per-byte as Latin-1 come back intact after encoding the
// runes to Latin-1 and re-reading the bytes as UTF-8. Text that does not fit
// the hypothesis (runes above 0xFF, or bytes that are not valid UTF-8) is
// returned unchanged. Already-correct ASCII round-trips to itself; other
// already-correct UTF-8 that happens to survive the round trip is repaired
// to the wrong output, which matches the historical behavior.
func RepairEncoding(s string) string {
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	if !utf8.ValidString(raw) {
		return s
	}
	return raw
}

// MaskURLs replaces every http(s) token, together with the rest of its
// non-whitespace run, with LinkMarker.
func MaskURLs(s string) string {
	return urlPattern.ReplaceAllString(s, LinkMarker)
}
