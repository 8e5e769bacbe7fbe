package api

import (
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidVideoURL = errors.New("not a recognized video URL")

// maxURLLen bounds raw input before any parsing.
const maxURLLen = 2048

// allowedHosts is the fixed allow-list of source platform domains.
var allowedHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	"youtu.be":        true,
}

// ValidateVideoURL checks that raw is a well-formed URL on an allowed
// host with an accepted video-reference path. The input is truncated to
// maxURLLen before validation.
func ValidateVideoURL(raw string) error {
	if len(raw) > maxURLLen {
		raw = raw[:maxURLLen]
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidVideoURL
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidVideoURL
	}

	host := u.Hostname()
	if !allowedHosts[host] {
		return ErrInvalidVideoURL
	}

	// The short domain accepts any non-empty path.
	if host == "youtu.be" {
		if strings.TrimPrefix(u.Path, "/") == "" {
			return ErrInvalidVideoURL
		}
		return nil
	}

	if u.Path == "/watch" && u.Query().Get("v") != "" {
		return nil
	}

	if id := strings.TrimPrefix(u.Path, "/shorts/"); id != u.Path && id != "" {
		return nil
	}

	return ErrInvalidVideoURL
}

// TruncateURL bounds a raw URL string to the validated length.
func TruncateURL(raw string) string {
	if len(raw) > maxURLLen {
		return raw[:maxURLLen]
	}
	return raw
}
