package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tubesnap/internal/sanitize"
	"tubesnap/pkg/models"
)

// handleHealth handles health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleMetadata handles POST /api/metadata
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if !s.metaLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "Too many lookups. Please slow down.")
		return
	}

	var req models.MetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	rawURL := TruncateURL(req.URL)
	if err := ValidateVideoURL(rawURL); err != nil {
		writeError(w, http.StatusBadRequest, "Please enter a valid YouTube link.")
		return
	}

	meta, err := s.extractor.Metadata(r.Context(), rawURL)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, meta)
}

// handleDownload handles POST /api/download
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !s.dlLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "Too many downloads. Please slow down.")
		return
	}

	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	rawURL := TruncateURL(req.URL)
	if err := ValidateVideoURL(rawURL); err != nil {
		writeError(w, http.StatusBadRequest, "Please enter a valid YouTube link.")
		return
	}

	if !sanitize.ValidFormatID(req.FormatID) {
		writeError(w, http.StatusBadRequest, "Invalid format selection.")
		return
	}

	// The subprocess keeps running if the client disconnects; the cleanup
	// triggers below reclaim its output either way.
	path, err := s.extractor.Download(context.WithoutCancel(r.Context()), rawURL, req.FormatID)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}

	// Backstop: reclaim the file even if the stream handlers never fire.
	time.AfterFunc(models.CleanupDelay, func() { removeIfExists(path) })

	info, err := os.Stat(path)
	if err != nil {
		removeIfExists(path)
		writeError(w, http.StatusInternalServerError, "The download did not produce a file.")
		return
	}

	if info.Size() > s.config.MaxFileSizeBytes {
		removeIfExists(path)
		writeError(w, http.StatusRequestEntityTooLarge, "File is too large. Please pick a smaller quality.")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		removeIfExists(path)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	defer f.Close()
	defer removeIfExists(path)

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	filename := attachmentName(req.Title, req.Channel, ext)

	w.Header().Set("Content-Type", sanitize.ContentType(ext))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Cache-Control", "no-store")

	if _, err := io.Copy(w, f); err != nil {
		// Client likely went away mid-stream; the deferred cleanup and
		// the timer both handle the file.
		fmt.Printf("Stream aborted for %s: %v\n", filename, err)
	}
}

// attachmentName builds the user-visible download filename from the
// sanitized title and channel.
func attachmentName(title, channel, ext string) string {
	base := sanitize.FileName(title)
	if ch := sanitize.FileName(channel); channel != "" && ch != "video" {
		base = base + " - " + ch
	}
	if ext == "" {
		ext = "mp4"
	}
	return base + "." + ext
}

// clientKey identifies the requesting client for rate limiting.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// removeIfExists deletes path if it still exists. Both the stream
// handlers and the fallback timer call this; deletion is idempotent and
// failures are logged, not escalated.
func removeIfExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Failed to remove temp file %s: %v\n", path, err)
	}
}
