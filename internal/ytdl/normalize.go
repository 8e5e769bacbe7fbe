package ytdl

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"tubesnap/pkg/models"
)

// Display caps applied to normalized metadata.
const (
	maxTitleLen       = 200
	maxChannelLen     = 100
	maxDescriptionLen = 500
)

// Video formats always outrank audio-only formats when scores compare.
const videoScoreBonus = 1_000_000

// truncate bounds s to at most max runes.
func truncate(s string, max int) string {
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max])
	}
	return s
}

func normalize(info *rawInfo) *models.VideoMetadata {
	channel := info.Channel
	if channel == "" {
		channel = info.Uploader
	}

	return &models.VideoMetadata{
		VideoID:     info.ID,
		Title:       truncate(info.Title, maxTitleLen),
		Channel:     truncate(channel, maxChannelLen),
		Duration:    strconv.Itoa(int(info.Duration)),
		Thumbnail:   info.Thumbnail,
		Description: truncate(info.Description, maxDescriptionLen),
		Views:       FormatViews(info.ViewCount),
		UploadDate:  FormatUploadDate(info.UploadDate),
		Formats:     normalizeFormats(info.Formats),
	}
}

// normalizeFormats filters the raw format list to usable entries, maps
// them to the client-facing shape, and sorts them best-first.
func normalizeFormats(raw []rawFormat) []models.Format {
	formats := make([]models.Format, 0, len(raw))

	for _, f := range raw {
		if f.FormatID == "" {
			continue
		}
		if f.Height == 0 && f.TBR == 0 && f.ABR == 0 && f.FormatNote == "" {
			continue
		}

		size := f.FileSize
		if size == 0 {
			size = f.FileSizeApprox
		}

		formats = append(formats, models.Format{
			FormatID: f.FormatID,
			Ext:      f.Ext,
			Quality:  qualityLabel(f),
			FileSize: size,
			Note:     f.FormatNote,
			VCodec:   codecTag(f.VCodec),
			ACodec:   codecTag(f.ACodec),
			FPS:      f.FPS,
			TBR:      f.TBR,
			ABR:      f.ABR,
		})
	}

	sort.SliceStable(formats, func(i, j int) bool {
		return formatScore(formats[i]) > formatScore(formats[j])
	})

	return formats
}

// formatScore ranks a format: resolution height for video, bitrate for
// audio, with a fixed bonus keeping every video format above every
// audio-only one.
func formatScore(f models.Format) float64 {
	bitrate := f.TBR
	if bitrate == 0 {
		bitrate = f.ABR
	}
	if f.HasVideo() {
		score := float64(heightOf(f.Quality))
		if score == 0 {
			score = bitrate
		}
		return videoScoreBonus + score
	}
	return bitrate
}

func heightOf(quality string) int {
	var h int
	if _, err := fmt.Sscanf(quality, "%dp", &h); err != nil {
		return 0
	}
	return h
}

func qualityLabel(f rawFormat) string {
	if f.Height > 0 {
		return fmt.Sprintf("%dp", f.Height)
	}
	if f.ABR > 0 {
		return fmt.Sprintf("%.0fkbps", f.ABR)
	}
	if f.TBR > 0 {
		return fmt.Sprintf("%.0fkbps", f.TBR)
	}
	return f.FormatNote
}

func codecTag(codec string) string {
	if codec == "none" {
		return ""
	}
	return codec
}

// FormatViews renders a view count with magnitude suffixes, one decimal
// place, or the literal count below 1000.
func FormatViews(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatUploadDate converts yt-dlp's YYYYMMDD token into a short date, or
// "Unknown" if absent or unparsable.
func FormatUploadDate(raw string) string {
	if raw == "" {
		return "Unknown"
	}
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return "Unknown"
	}
	return t.Format("Jan 2, 2006")
}
