// Package sanitize validates and cleans user-supplied values that end up
// on a command line, in a filesystem path, or in a response header.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxBaseNameLen bounds the sanitized title/channel base filename.
	MaxBaseNameLen = 120

	// MaxFormatIDLen bounds the format token passed to yt-dlp.
	MaxFormatIDLen = 64
)

// formatIDPattern is restrictive on purpose: the token is interpolated
// into a yt-dlp command line.
var formatIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// unsafeChars are stripped from filenames on every platform we serve.
var unsafeChars = strings.NewReplacer(
	"/", "", "\\", "", ":", "", "*", "", "?", "",
	"\"", "", "<", "", ">", "", "|", "", "\x00", "",
)

// ValidFormatID reports whether id is a safe format token.
func ValidFormatID(id string) bool {
	if id == "" || len(id) > MaxFormatIDLen {
		return false
	}
	return formatIDPattern.MatchString(id)
}

// FileName strips filesystem-unsafe and non-printable characters,
// collapses whitespace, and truncates the result. Returns "video" if
// nothing printable survives.
func FileName(name string) string {
	cleaned := unsafeChars.Replace(name)

	var b strings.Builder
	for _, r := range cleaned {
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}

	fields := strings.Fields(b.String())
	out := strings.Join(fields, " ")

	if runes := []rune(out); len(runes) > MaxBaseNameLen {
		out = strings.TrimSpace(string(runes[:MaxBaseNameLen]))
	}

	if out == "" {
		return "video"
	}
	return out
}

// contentTypes maps container/codec extensions to MIME types.
var contentTypes = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"flv":  "video/x-flv",
	"3gp":  "video/3gpp",
	"m4a":  "audio/mp4",
	"mp3":  "audio/mpeg",
	"opus": "audio/opus",
	"ogg":  "audio/ogg",
	"wav":  "audio/wav",
	"aac":  "audio/aac",
}

// ContentType returns the MIME type for a file extension (without the
// dot), defaulting to application/octet-stream.
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}
