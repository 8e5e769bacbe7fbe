package models

import "time"

// Config represents the application configuration
type Config struct {
	WebServerHost      string `json:"webServerHost"`
	WebServerPort      int    `json:"webServerPort"`
	YtdlPath           string `json:"ytdlPath"`
	YtdlAutoUpdate     bool   `json:"ytdlAutoUpdate"`
	TempDir            string `json:"tempDir"`
	DownloadDir        string `json:"downloadDir"`
	Constrained        bool   `json:"constrained"`
	MetadataRatePerMin int    `json:"metadataRatePerMin"`
	DownloadRatePerMin int    `json:"downloadRatePerMin"`
	MaxFileSizeBytes   int64  `json:"maxFileSizeBytes"`
	AutoUpdate         bool   `json:"autoUpdate"`
}

// Operational limits. Fixed policy, not user-configurable at runtime.
const (
	MetadataTimeout = 30 * time.Second

	// Download timeout depends on the hosting environment.
	DownloadTimeout            = 300 * time.Second
	DownloadTimeoutConstrained = 250 * time.Second

	// Fallback temp-file cleanup delay.
	CleanupDelay = 5 * time.Minute

	RateWindow = 60 * time.Second

	MaxFileSize = int64(2) << 30 // 2 GB

	// Cap on yt-dlp's structured output.
	MaxToolOutput = 10 << 20 // 10 MB
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		WebServerHost:      "127.0.0.1",
		WebServerPort:      9696,
		YtdlPath:           "",
		YtdlAutoUpdate:     true,
		TempDir:            "",
		DownloadDir:        "",
		Constrained:        false,
		MetadataRatePerMin: 30,
		DownloadRatePerMin: 10,
		MaxFileSizeBytes:   MaxFileSize,
		AutoUpdate:         true,
	}
}

// DownloadTimeoutFor returns the file-fetch timeout for the environment.
func (c *Config) DownloadTimeoutFor() time.Duration {
	if c.Constrained {
		return DownloadTimeoutConstrained
	}
	return DownloadTimeout
}
