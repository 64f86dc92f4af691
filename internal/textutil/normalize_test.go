package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskURLs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"http", "see http://example.com/x?y=1 now", "see [LINK] now"},
		{"https", "https://a.b/c", "[LINK]"},
		{"greedy run", "go http://x.y/z,trailing?q=1 end", "go [LINK] end"},
		{"multiple", "http://a http://b", "[LINK] [LINK]"},
		{"none", "no links here", "no links here"},
		{"bare scheme word", "httpx is not a link", "httpx is not a link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskURLs(tt.in)
			assert.Equal(t, tt.want, got)
			if strings.Contains(tt.in, "http://") || strings.Contains(tt.in, "https://") {
				assert.NotContains(t, got, "http")
			}
		})
	}
}

func TestRepairEncoding(t *testing.T) {
	// "你好" in UTF-8 read byte-per-byte as Latin-1.
	broken := string([]rune{0xE4, 0xBD, 0xA0, 0xE5, 0xA5, 0xBD})
	assert.Equal(t, "你好", RepairEncoding(broken))

	// ASCII is a fixed point.
	assert.Equal(t, "plain ascii", RepairEncoding("plain ascii"))

	// Runes above 0xFF cannot be the product of a Latin-1 decode; unchanged.
	assert.Equal(t, "既是正確的", RepairEncoding("既是正確的"))

	// Latin-1 bytes that are not valid UTF-8 stay as-is.
	assert.Equal(t, "café", RepairEncoding("café"))
}
