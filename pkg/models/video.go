package models

// VideoMetadata is the client-facing view of a video, normalized from the
// raw yt-dlp output. It lives only for the duration of one lookup.
type VideoMetadata struct {
	VideoID     string   `json:"videoId"`
	Title       string   `json:"title"`
	Channel     string   `json:"channel"`
	Duration    string   `json:"duration"`
	Thumbnail   string   `json:"thumbnail"`
	Description string   `json:"description"`
	Views       string   `json:"views"`
	UploadDate  string   `json:"uploadDate"`
	Formats     []Format `json:"formats"`
}

// Format is one selectable quality/container variant of a video.
// FormatID is the opaque token later passed back to request the file.
type Format struct {
	FormatID string  `json:"formatId"`
	Ext      string  `json:"ext"`
	Quality  string  `json:"quality"`
	FileSize int64   `json:"fileSize,omitempty"`
	Note     string  `json:"note,omitempty"`
	VCodec   string  `json:"vcodec,omitempty"`
	ACodec   string  `json:"acodec,omitempty"`
	FPS      float64 `json:"fps,omitempty"`
	TBR      float64 `json:"tbr,omitempty"`
	ABR      float64 `json:"abr,omitempty"`
}

// HasVideo reports whether the format carries a video stream.
func (f Format) HasVideo() bool {
	return f.VCodec != "" && f.VCodec != "none"
}

// MetadataRequest is the body of POST /api/metadata.
type MetadataRequest struct {
	URL string `json:"url"`
}

// DownloadRequest is the body of POST /api/download.
type DownloadRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"formatId"`
	Title    string `json:"title"`
	Channel  string `json:"channel"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
