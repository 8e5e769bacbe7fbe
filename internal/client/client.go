// Package client talks to the tubesnap API from the front-end side:
// metadata lookups and file downloads with byte-level progress.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"tubesnap/pkg/models"
)

// APIError is a server-reported failure with its status class.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ErrNetwork marks connectivity failures, distinct from server-reported
// errors.
var ErrNetwork = errors.New("network error")

// Client calls the tubesnap HTTP API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a client for the API at baseURL, e.g. "http://127.0.0.1:9696".
// No client-side timeout is set; callers bound requests with contexts.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{},
	}
}

// Metadata fetches the normalized metadata for a video URL.
func (c *Client) Metadata(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	resp, err := c.post(ctx, "/api/metadata", models.MetadataRequest{URL: videoURL})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiErrorFrom(resp)
	}

	var meta models.VideoMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}

	return &meta, nil
}

// DownloadResult describes a completed transfer.
type DownloadResult struct {
	Filename string
	Size     int64
}

// Download requests the file for req and copies it to dst. onProgress, if
// non-nil, receives cumulative byte counts; total is -1 when the server
// does not advertise a size.
func (c *Client) Download(ctx context.Context, req models.DownloadRequest, dst io.Writer, onProgress func(done, total int64)) (*DownloadResult, error) {
	resp, err := c.post(ctx, "/api/download", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiErrorFrom(resp)
	}

	total := resp.ContentLength
	if total == 0 {
		total = -1
	}

	var done int64
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return nil, werr
			}
			done += int64(n)
			if onProgress != nil {
				onProgress(done, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrNetwork, rerr)
		}
	}

	return &DownloadResult{
		Filename: filenameFrom(resp),
		Size:     done,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	return resp, nil
}

// apiErrorFrom reads the {error} body of a non-2xx response.
func apiErrorFrom(resp *http.Response) error {
	var body models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		body.Error = resp.Status
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}

// filenameFrom extracts the attachment filename, if present.
func filenameFrom(resp *http.Response) string {
	cd := resp.Header.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// FriendlyMessage translates a transfer failure into user-facing copy.
func FriendlyMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusTooManyRequests:
			return "Too many downloads right now. Wait a minute and retry."
		case http.StatusRequestEntityTooLarge:
			return "That file is too large. Pick a smaller quality."
		case http.StatusRequestTimeout:
			return "The download timed out. Retry in a moment."
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "The download failed. Please retry."
	}

	if errors.Is(err, ErrNetwork) {
		return "Connection lost. Check your internet and retry."
	}

	return "The download failed. Please retry."
}
