package ytdl

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"tubesnap/internal/ghrelease"
)

// ytdlpRepo is where release binaries of the external tool come from.
const ytdlpRepo = "yt-dlp/yt-dlp"

// Manager handles yt-dlp installation and updates
type Manager struct {
	utilsDir       string
	currentVersion string
	releases       *ghrelease.Client
}

// NewManager creates a new yt-dlp manager
func NewManager(utilsDir string) *Manager {
	return NewManagerWithClient(utilsDir, &http.Client{Timeout: 60 * time.Second})
}

// NewManagerWithClient creates a manager over a custom HTTP transport
func NewManagerWithClient(utilsDir string, client ghrelease.HTTPClient) *Manager {
	os.MkdirAll(utilsDir, 0755)

	return &Manager{
		utilsDir: utilsDir,
		releases: ghrelease.NewClientWith(client),
	}
}

// BinPath returns the path to the yt-dlp executable
func (m *Manager) BinPath() string {
	return filepath.Join(m.utilsDir, assetName())
}

// IsInstalled checks if yt-dlp is installed
func (m *Manager) IsInstalled() bool {
	_, err := os.Stat(m.BinPath())
	return err == nil
}

// CurrentVersion returns the currently installed version tag
func (m *Manager) CurrentVersion() string {
	return m.currentVersion
}

// CheckForUpdate checks if a newer version is available
func (m *Manager) CheckForUpdate() (string, bool, error) {
	release, err := m.releases.Latest(ytdlpRepo)
	if err != nil {
		return "", false, err
	}

	if !m.IsInstalled() {
		return release.TagName, true, nil
	}

	if m.currentVersion == "" || m.currentVersion != release.TagName {
		return release.TagName, true, nil
	}

	return release.TagName, false, nil
}

// Download downloads and installs yt-dlp
func (m *Manager) Download() error {
	release, err := m.releases.Latest(ytdlpRepo)
	if err != nil {
		return err
	}

	asset := assetName()
	downloadURL, ok := release.AssetURL(asset)
	if !ok {
		return fmt.Errorf("no asset found for platform: %s", asset)
	}

	fmt.Printf("Downloading yt-dlp %s...\n", release.TagName)
	body, err := m.releases.FetchAsset(downloadURL)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := ghrelease.InstallExecutable(body, m.BinPath()); err != nil {
		return err
	}

	m.currentVersion = release.TagName
	fmt.Printf("yt-dlp %s installed\n", release.TagName)

	return nil
}

// EnsureInstalled ensures yt-dlp is installed, downloading if necessary
func (m *Manager) EnsureInstalled() error {
	if m.IsInstalled() {
		return nil
	}

	fmt.Println("yt-dlp not found, downloading...")
	return m.Download()
}

// AutoUpdate checks for and applies updates if available
func (m *Manager) AutoUpdate() error {
	latestVersion, hasUpdate, err := m.CheckForUpdate()
	if err != nil {
		return err
	}

	if !hasUpdate {
		return nil
	}

	fmt.Printf("Updating yt-dlp to %s...\n", latestVersion)
	return m.Download()
}

// assetName returns the yt-dlp release asset for the current platform
func assetName() string {
	switch runtime.GOOS {
	case "windows":
		return "yt-dlp.exe"
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "yt-dlp_linux_aarch64"
		}
		return "yt-dlp_linux"
	case "darwin":
		return "yt-dlp_macos"
	default:
		return "yt-dlp"
	}
}
