// Package updater replaces the running tubesnap binary with the latest
// GitHub release, keeping a backup of the old executable until the swap
// has succeeded.
package updater

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"tubesnap/internal/ghrelease"
)

const checkTimeout = 30 * time.Second

// Updater handles application updates
type Updater struct {
	repo           string
	currentVersion string
	releases       *ghrelease.Client
}

// NewUpdater creates a new updater for the given "owner/name" repo
func NewUpdater(repo, currentVersion string) *Updater {
	return &Updater{
		repo:           repo,
		currentVersion: currentVersion,
		releases:       ghrelease.NewClient(checkTimeout),
	}
}

// NewUpdaterWithClient creates an updater over a custom HTTP transport
func NewUpdaterWithClient(repo, currentVersion string, client ghrelease.HTTPClient) *Updater {
	return &Updater{
		repo:           repo,
		currentVersion: currentVersion,
		releases:       ghrelease.NewClientWith(client),
	}
}

// GetCurrentVersion returns the current version
func (u *Updater) GetCurrentVersion() string {
	return u.currentVersion
}

// CheckForUpdate checks if a new version is available
func (u *Updater) CheckForUpdate() (string, bool, error) {
	release, err := u.releases.Latest(u.repo)
	if err != nil {
		return "", false, fmt.Errorf("failed to check for updates: %w", err)
	}

	return release.TagName, newerThan(release.TagName, u.currentVersion), nil
}

// Download downloads the latest release and swaps it in for the
// executable at exePath. The previous binary is restored if any step
// after the backup fails.
func (u *Updater) Download(exePath string) error {
	release, err := u.releases.Latest(u.repo)
	if err != nil {
		return err
	}

	asset := assetName()
	downloadURL, ok := release.AssetURL(asset)
	if !ok {
		return fmt.Errorf("no asset found for platform: %s", asset)
	}

	backupPath, err := u.backupExecutable(exePath)
	if err != nil {
		return fmt.Errorf("failed to backup executable: %w", err)
	}

	fmt.Printf("Downloading update %s...\n", release.TagName)
	body, err := u.releases.FetchAsset(downloadURL)
	if err != nil {
		u.restoreBackup(exePath, backupPath)
		return err
	}
	defer body.Close()

	if err := ghrelease.InstallExecutable(body, exePath); err != nil {
		u.restoreBackup(exePath, backupPath)
		return err
	}

	os.Remove(backupPath)

	fmt.Printf("Update to %s completed successfully\n", release.TagName)
	return nil
}

// backupExecutable creates a backup of the current executable
func (u *Updater) backupExecutable(exePath string) (string, error) {
	backupPath := exePath + ".bak"

	data, err := os.ReadFile(exePath)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(backupPath, data, 0755); err != nil {
		return "", err
	}

	return backupPath, nil
}

// restoreBackup restores from backup
func (u *Updater) restoreBackup(exePath, backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return err
	}

	if err := os.WriteFile(exePath, data, 0755); err != nil {
		return err
	}

	os.Remove(backupPath)
	return nil
}

// VerifyChecksum verifies the SHA-256 checksum of a file
func (u *Updater) VerifyChecksum(filePath, expectedChecksum string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(data)
	actualChecksum := hex.EncodeToString(hash[:])

	if actualChecksum != expectedChecksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actualChecksum)
	}

	return nil
}

// version is a parsed major.minor.patch release tag. Missing or
// non-numeric components count as zero.
type version [3]int

func parseVersion(tag string) version {
	tag = strings.TrimPrefix(tag, "v")

	var v version
	for i, part := range strings.Split(tag, ".") {
		if i >= len(v) {
			break
		}
		if n, err := strconv.Atoi(part); err == nil {
			v[i] = n
		}
	}

	return v
}

// newerThan reports whether tag a is a later release than tag b.
func newerThan(a, b string) bool {
	va, vb := parseVersion(a), parseVersion(b)
	for i := range va {
		if va[i] != vb[i] {
			return va[i] > vb[i]
		}
	}
	return false
}

// assetName returns the tubesnap release asset for the current platform
func assetName() string {
	name := fmt.Sprintf("tubesnap-%s-%s", runtime.GOOS, runtime.GOARCH)
	switch runtime.GOOS {
	case "windows":
		return name + ".exe"
	case "linux", "darwin":
		return name
	default:
		return "tubesnap"
	}
}
