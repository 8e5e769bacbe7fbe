package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"tubesnap/internal/ytdl"
	"tubesnap/pkg/models"
)

// statusFor maps an extractor failure onto the error taxonomy. Nothing
// from the subprocess or the filesystem propagates raw to the caller.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ytdl.ErrTimeout):
		return http.StatusRequestTimeout, "The request timed out. Please try again."
	case errors.Is(err, ytdl.ErrUnavailable):
		return http.StatusNotFound, "This video is unavailable or private."
	case errors.Is(err, ytdl.ErrBadMetadata):
		return http.StatusInternalServerError, "Could not read video information."
	case errors.Is(err, ytdl.ErrNoOutputFile):
		return http.StatusInternalServerError, "The download did not produce a file."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
