package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidFormatID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"numeric", "137", true},
		{"alphanumeric", "bestaudio", true},
		{"dash and underscore", "hls-720_v2", true},
		{"empty", "", false},
		{"shell metacharacters", "137; rm -rf /", false},
		{"spaces", "137 140", false},
		{"plus selector", "137+140", false},
		{"too long", strings.Repeat("a", 65), false},
		{"max length", strings.Repeat("a", 64), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidFormatID(tt.id))
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "My Video", "My Video"},
		{"path separators", "a/b\\c", "abc"},
		{"reserved characters", `Who? "What": <All*> |of| them`, "Who What All of them"},
		{"control characters", "tab\there\nnewline", "tabherenewline"},
		{"collapses whitespace", "  too   many    spaces  ", "too many spaces"},
		{"unicode kept", "日本語タイトル", "日本語タイトル"},
		{"nothing printable", "///\\\\***", "video"},
		{"empty", "", "video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.input))
		})
	}
}

func TestFileNameTruncatesRunes(t *testing.T) {
	long := strings.Repeat("あ", 300)
	got := FileName(long)

	runes := []rune(got)
	assert.Len(t, runes, MaxBaseNameLen)
	// Truncation happens at a rune boundary, not mid-sequence.
	assert.True(t, strings.HasPrefix(long, got))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "video/mp4", ContentType("mp4"))
	assert.Equal(t, "video/webm", ContentType("WEBM"))
	assert.Equal(t, "audio/mp4", ContentType("m4a"))
	assert.Equal(t, "application/octet-stream", ContentType("exe"))
	assert.Equal(t, "application/octet-stream", ContentType(""))
}
