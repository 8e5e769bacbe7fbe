// Package ytdl wraps the yt-dlp command-line tool: locating and updating
// the binary, and invoking it for metadata lookups and file downloads.
package ytdl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tubesnap/pkg/models"
)

var (
	ErrTimeout        = errors.New("yt-dlp timed out")
	ErrUnavailable    = errors.New("video unavailable")
	ErrToolFailed     = errors.New("yt-dlp failed")
	ErrBadMetadata    = errors.New("metadata missing required fields")
	ErrOutputTooLarge = errors.New("yt-dlp output exceeded buffer limit")
	ErrNoOutputFile   = errors.New("no output file produced")
)

// Client invokes yt-dlp as a subprocess.
type Client struct {
	binPath         string
	tempDir         string
	metadataTimeout time.Duration
	downloadTimeout time.Duration
}

// NewClient creates a client that runs the given yt-dlp binary and writes
// downloaded files under tempDir.
func NewClient(binPath, tempDir string, metadataTimeout, downloadTimeout time.Duration) *Client {
	if metadataTimeout <= 0 {
		metadataTimeout = models.MetadataTimeout
	}
	if downloadTimeout <= 0 {
		downloadTimeout = models.DownloadTimeout
	}

	return &Client{
		binPath:         binPath,
		tempDir:         tempDir,
		metadataTimeout: metadataTimeout,
		downloadTimeout: downloadTimeout,
	}
}

// rawInfo mirrors the single-document JSON that yt-dlp -J emits.
type rawInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Uploader    string      `json:"uploader"`
	Channel     string      `json:"channel"`
	Duration    float64     `json:"duration"`
	Thumbnail   string      `json:"thumbnail"`
	Description string      `json:"description"`
	ViewCount   int64       `json:"view_count"`
	UploadDate  string      `json:"upload_date"`
	Formats     []rawFormat `json:"formats"`
}

type rawFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	FormatNote     string  `json:"format_note"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	ABR            float64 `json:"abr"`
	TBR            float64 `json:"tbr"`
	FileSize       int64   `json:"filesize"`
	FileSizeApprox int64   `json:"filesize_approx"`
}

// Metadata runs yt-dlp in metadata-only mode and returns the normalized
// client-facing view of the video.
func (c *Client) Metadata(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.metadataTimeout)
	defer cancel()

	stdout := newCapBuffer(models.MaxToolOutput)
	stderr := newHeadBuffer(maxStderrKept)

	cmd := exec.CommandContext(ctx, c.binPath,
		"-J", "--no-playlist", "--no-warnings", "--skip-download", videoURL)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, classifyRunError(ctx, err, stderr.String())
	}

	var info rawInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMetadata, err)
	}

	if info.ID == "" || info.Title == "" {
		return nil, ErrBadMetadata
	}

	return normalize(&info), nil
}

// Download runs yt-dlp to materialize the chosen format in the temp
// directory and returns the path of the produced file. The output
// template uses a generated stem unique to this request, so the file is
// located by exact stem match rather than a name search.
func (c *Client) Download(ctx context.Context, videoURL, formatID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	stem := uuid.New().String()
	template := filepath.Join(c.tempDir, stem+".%(ext)s")

	output := newCapBuffer(models.MaxToolOutput)
	stderr := newHeadBuffer(maxStderrKept)

	cmd := exec.CommandContext(ctx, c.binPath,
		"--no-playlist", "--no-warnings",
		"-f", formatID,
		"-o", template,
		videoURL)
	cmd.Stdout = output
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", classifyRunError(ctx, err, stderr.String())
	}

	return c.locate(stem)
}

// locate finds the file yt-dlp wrote for the given stem. The extension is
// chosen by yt-dlp, so only the stem is known in advance.
func (c *Client) locate(stem string) (string, error) {
	entries, err := os.ReadDir(c.tempDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoOutputFile, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), stem+".") {
			path := filepath.Join(c.tempDir, e.Name())
			if _, err := os.Stat(path); err != nil {
				return "", fmt.Errorf("%w: %v", ErrNoOutputFile, err)
			}
			return path, nil
		}
	}

	return "", ErrNoOutputFile
}

// classifyRunError maps a subprocess failure onto the error taxonomy.
func classifyRunError(ctx context.Context, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, errCapExceeded) {
		return ErrOutputTooLarge
	}
	if strings.Contains(stderr, "ERROR:") {
		return fmt.Errorf("%w: %s", ErrUnavailable, firstLine(stderr))
	}
	return fmt.Errorf("%w: %v", ErrToolFailed, err)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

var errCapExceeded = errors.New("output cap exceeded")

// capBuffer is a bytes.Buffer that refuses writes past a fixed limit.
type capBuffer struct {
	buf   bytes.Buffer
	limit int
}

func newCapBuffer(limit int) *capBuffer {
	return &capBuffer{limit: limit}
}

func (b *capBuffer) Write(p []byte) (int, error) {
	if b.buf.Len()+len(p) > b.limit {
		return 0, errCapExceeded
	}
	return b.buf.Write(p)
}

func (b *capBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

// Diagnostic text beyond this point is discarded; the classifier only
// looks at the beginning of stderr.
const maxStderrKept = 64 * 1024

// headBuffer keeps the first limit bytes written to it and silently
// drops the rest. Unlike capBuffer it never fails the write, so a noisy
// subprocess cannot turn a successful run into an error.
type headBuffer struct {
	buf   bytes.Buffer
	limit int
}

func newHeadBuffer(limit int) *headBuffer {
	return &headBuffer{limit: limit}
}

func (b *headBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *headBuffer) String() string {
	return b.buf.String()
}
