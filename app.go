package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"tubesnap/internal/api"
	"tubesnap/internal/client"
	"tubesnap/internal/config"
	"tubesnap/internal/queue"
	"tubesnap/internal/sanitize"
	"tubesnap/internal/ytdl"
	"tubesnap/pkg/models"
)

// App is the desktop application: it runs the local API server and owns
// the download queue bound to the embedded front end.
type App struct {
	ctx           context.Context
	configManager *config.Manager
	server        *api.Server
	apiClient     *client.Client
	queue         *queue.Manager
	ytdlManager   *ytdl.Manager
	downloadDir   string
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	cfgManager, err := config.NewManager(config.GetDefaultConfigPath())
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}
	a.configManager = cfgManager
	cfg := cfgManager.Get()

	a.ytdlManager = ytdl.NewManager(filepath.Join(config.GetDataDir(), "utils"))
	if cfg.YtdlPath == "" {
		if err := a.ytdlManager.EnsureInstalled(); err != nil {
			fmt.Printf("Warning: failed to install yt-dlp: %v\n", err)
		}
		if cfg.YtdlAutoUpdate {
			if err := a.ytdlManager.AutoUpdate(); err != nil {
				fmt.Printf("Warning: failed to update yt-dlp: %v\n", err)
			}
		}
		cfg.YtdlPath = a.ytdlManager.BinPath()
	}

	extractor := ytdl.NewClient(cfg.YtdlPath, cfg.TempDir,
		models.MetadataTimeout, cfg.DownloadTimeoutFor())

	a.server = api.NewServer(cfg, extractor, nil)
	if err := a.server.Start(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		return
	}

	a.apiClient = client.New("http://" + a.server.GetActualAddr())

	a.downloadDir = cfg.DownloadDir
	if a.downloadDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			a.downloadDir = filepath.Join(home, "Downloads")
		} else {
			a.downloadDir = "."
		}
	}
	os.MkdirAll(a.downloadDir, 0755)

	a.queue = queue.NewManager(
		&fileTransfer{api: a.apiClient, dir: a.downloadDir},
		client.FriendlyMessage,
	)
	a.queue.SetUpdateCallback(func(item queue.Item) {
		wailsruntime.EventsEmit(a.ctx, "queue:update", item)
	})
}

// shutdown is called when the app closes
func (a *App) shutdown(ctx context.Context) {
	if a.server != nil && a.server.IsRunning() {
		a.server.Stop()
	}
}

// Lookup fetches metadata for a pasted video link.
func (a *App) Lookup(videoURL string) (*models.VideoMetadata, error) {
	return a.apiClient.Metadata(a.ctx, videoURL)
}

// Enqueue adds a format selection to the download queue and returns the
// new item's ID.
func (a *App) Enqueue(videoID, title, channel, quality, videoURL, formatID string) string {
	return a.queue.Enqueue(videoID, title, channel, quality, queue.Request{
		URL:      videoURL,
		FormatID: formatID,
	})
}

// Cancel aborts a queued or in-flight download.
func (a *App) Cancel(id string) error {
	return a.queue.Cancel(id)
}

// Retry re-queues an errored or cancelled download.
func (a *App) Retry(id string) error {
	return a.queue.Retry(id)
}

// ClearCompleted removes completed items from the queue view.
func (a *App) ClearCompleted() {
	a.queue.ClearCompleted()
}

// Items returns the current queue contents in order.
func (a *App) Items() []queue.Item {
	return a.queue.Items()
}

// DownloadDir returns where completed files are saved.
func (a *App) DownloadDir() string {
	return a.downloadDir
}

// fileTransfer downloads through the local API into the downloads
// directory, renaming the finished file to its display name.
type fileTransfer struct {
	api *client.Client
	dir string
}

func (t *fileTransfer) Do(ctx context.Context, item queue.Item, onProgress func(done, total int64)) error {
	part, err := os.CreateTemp(t.dir, ".tubesnap-*.part")
	if err != nil {
		return err
	}
	partPath := part.Name()

	res, err := t.api.Download(ctx, models.DownloadRequest{
		URL:      item.Request.URL,
		FormatID: item.Request.FormatID,
		Title:    item.Title,
		Channel:  item.Channel,
	}, part, onProgress)

	part.Close()
	if err != nil {
		os.Remove(partPath)
		return err
	}

	name := res.Filename
	if name == "" {
		name = sanitize.FileName(item.Title) + " - " + sanitize.FileName(item.Channel) + ".mp4"
	}

	return os.Rename(partPath, uniquePath(t.dir, name))
}

// uniquePath appends (1), (2), ... until the name is free.
func uniquePath(dir, name string) string {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	for i := 1; ; i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, i, ext))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
	}
}
