package ytdl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub writes an executable shell script standing in for yt-dlp.
func writeStub(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "yt-dlp")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755)
	require.NoError(t, err)
	return path
}

const stubMetadata = `{
	"id": "abc123",
	"title": "Test Video",
	"channel": "Test Channel",
	"duration": 123.4,
	"thumbnail": "https://example.com/thumb.jpg",
	"description": "A test video",
	"view_count": 1500000,
	"upload_date": "20240115",
	"formats": [
		{"format_id": "140", "ext": "m4a", "acodec": "mp4a.40.2", "vcodec": "none", "abr": 128, "tbr": 129.5},
		{"format_id": "137", "ext": "mp4", "height": 1080, "vcodec": "avc1", "acodec": "none", "fps": 30, "tbr": 4400}
	]
}`

func TestMetadata(t *testing.T) {
	stub := writeStub(t, fmt.Sprintf("cat <<'EOF'\n%s\nEOF\n", stubMetadata))
	c := NewClient(stub, t.TempDir(), 10*time.Second, 10*time.Second)

	meta, err := c.Metadata(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)

	assert.Equal(t, "abc123", meta.VideoID)
	assert.Equal(t, "Test Video", meta.Title)
	assert.Equal(t, "Test Channel", meta.Channel)
	assert.Equal(t, "123", meta.Duration)
	assert.Equal(t, "1.5M", meta.Views)
	assert.Equal(t, "Jan 15, 2024", meta.UploadDate)
	require.Len(t, meta.Formats, 2)

	// Video format sorts above audio despite lower list position.
	assert.Equal(t, "137", meta.Formats[0].FormatID)
	assert.Equal(t, "1080p", meta.Formats[0].Quality)
	assert.Equal(t, "140", meta.Formats[1].FormatID)
}

func TestMetadataMissingRequiredFields(t *testing.T) {
	stub := writeStub(t, `echo '{"id": "", "title": "no id"}'`)
	c := NewClient(stub, t.TempDir(), 10*time.Second, 10*time.Second)

	_, err := c.Metadata(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrBadMetadata)
}

func TestMetadataInvalidJSON(t *testing.T) {
	stub := writeStub(t, `echo 'not json'`)
	c := NewClient(stub, t.TempDir(), 10*time.Second, 10*time.Second)

	_, err := c.Metadata(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrBadMetadata)
}

func TestMetadataErrorMarker(t *testing.T) {
	stub := writeStub(t, `echo "ERROR: Private video" >&2; exit 1`)
	c := NewClient(stub, t.TempDir(), 10*time.Second, 10*time.Second)

	_, err := c.Metadata(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMetadataNoisyStderrStillSucceeds(t *testing.T) {
	// Warnings far beyond the retained stderr window must not affect a
	// run that produces valid metadata.
	stub := writeStub(t, fmt.Sprintf(
		"head -c 200000 /dev/zero | tr '\\0' 'w' >&2\ncat <<'EOF'\n%s\nEOF\n", stubMetadata))
	c := NewClient(stub, t.TempDir(), 10*time.Second, 10*time.Second)

	meta, err := c.Metadata(context.Background(), "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", meta.VideoID)
}

func TestMetadataErrorMarkerInNoisyStderr(t *testing.T) {
	stub := writeStub(t,
		"echo \"ERROR: Private video\" >&2\nhead -c 200000 /dev/zero | tr '\\0' 'x' >&2\nexit 1")
	c := NewClient(stub, t.TempDir(), 10*time.Second, 10*time.Second)

	_, err := c.Metadata(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "Private video")
}

func TestMetadataTimeout(t *testing.T) {
	stub := writeStub(t, `sleep 5`)
	c := NewClient(stub, t.TempDir(), 100*time.Millisecond, 10*time.Second)

	_, err := c.Metadata(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestMetadataGenericFailure(t *testing.T) {
	stub := writeStub(t, `exit 3`)
	c := NewClient(stub, t.TempDir(), 10*time.Second, 10*time.Second)

	_, err := c.Metadata(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrToolFailed)
}

func TestDownloadProducesFile(t *testing.T) {
	// The stub writes to the -o template after substituting the
	// extension, like yt-dlp does.
	stub := writeStub(t, `
while [ $# -gt 1 ]; do
  if [ "$1" = "-o" ]; then tmpl="$2"; fi
  shift
done
out=$(echo "$tmpl" | sed 's/%(ext)s/mp4/')
echo "video bytes" > "$out"
`)
	tempDir := t.TempDir()
	c := NewClient(stub, tempDir, 10*time.Second, 10*time.Second)

	path, err := c.Download(context.Background(), "https://youtu.be/abc", "137")
	require.NoError(t, err)

	assert.Equal(t, tempDir, filepath.Dir(path))
	assert.Equal(t, ".mp4", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "video bytes\n", string(data))
}

func TestDownloadNoOutputFile(t *testing.T) {
	stub := writeStub(t, `exit 0`)
	c := NewClient(stub, t.TempDir(), 10*time.Second, 10*time.Second)

	_, err := c.Download(context.Background(), "https://youtu.be/abc", "137")
	assert.ErrorIs(t, err, ErrNoOutputFile)
}

func TestDownloadIgnoresOtherTempFiles(t *testing.T) {
	tempDir := t.TempDir()

	// A leftover file from another request must never be picked up.
	err := os.WriteFile(filepath.Join(tempDir, "leftover.mp4"), []byte("old"), 0644)
	require.NoError(t, err)

	stub := writeStub(t, `exit 0`)
	c := NewClient(stub, tempDir, 10*time.Second, 10*time.Second)

	_, err = c.Download(context.Background(), "https://youtu.be/abc", "137")
	assert.ErrorIs(t, err, ErrNoOutputFile)
}

func TestDownloadTimeout(t *testing.T) {
	stub := writeStub(t, `sleep 5`)
	c := NewClient(stub, t.TempDir(), 10*time.Second, 100*time.Millisecond)

	_, err := c.Download(context.Background(), "https://youtu.be/abc", "137")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHeadBufferKeepsPrefix(t *testing.T) {
	b := newHeadBuffer(5)

	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Overflowing writes are truncated but still report full length.
	n, err = b.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = b.Write([]byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	assert.Equal(t, "abcde", b.String())
}
