package main

import (
	"fmt"
	"os"
	"path/filepath"

	"tubesnap/frontend"
	"tubesnap/internal/api"
	"tubesnap/internal/cli"
	"tubesnap/internal/config"
	"tubesnap/internal/updater"
	"tubesnap/internal/ytdl"
	"tubesnap/pkg/models"
)

const (
	Version    = "0.1.0"
	GitHubRepo = "tubesnap/tubesnap"
)

func main() {
	cliApp := cli.NewCLI(Version)

	if len(os.Args) < 2 {
		cliApp.PrintHelp(os.Stderr)
		os.Exit(1)
	}

	cmd, err := cliApp.ParseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		cliApp.PrintHelp(os.Stderr)
		os.Exit(1)
	}

	if cmd.Type == cli.CommandHelp {
		cliApp.PrintHelp(os.Stdout)
		os.Exit(0)
	}

	if cmd.Type == cli.CommandVersion {
		cliApp.PrintVersion(os.Stdout)
		os.Exit(0)
	}

	os.Exit(executeCommand(cmd))
}

func executeCommand(cmd *cli.Command) int {
	switch cmd.Type {
	case cli.CommandServer:
		return runServer(cmd)
	case cli.CommandUpdate:
		return runUpdate(cmd.CheckOnly)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd.String())
		return 1
	}
}

func runServer(cmd *cli.Command) int {
	configPath := config.GetDefaultConfigPath()
	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	cfg := cfgMgr.Get()
	if cmd.Port != 0 {
		cfg.WebServerPort = cmd.Port
	}
	if cmd.Host != "" {
		cfg.WebServerHost = cmd.Host
	}

	ytdlManager := ytdl.NewManager(filepath.Join(config.GetDataDir(), "utils"))
	if cfg.YtdlPath == "" {
		fmt.Println("Checking yt-dlp installation...")
		if err := ytdlManager.EnsureInstalled(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: yt-dlp is not available: %v\n", err)
			return 1
		}
		if cfg.YtdlAutoUpdate {
			if err := ytdlManager.AutoUpdate(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to update yt-dlp: %v\n", err)
			}
		}
		cfg.YtdlPath = ytdlManager.BinPath()
	}

	extractor := ytdl.NewClient(cfg.YtdlPath, cfg.TempDir,
		models.MetadataTimeout, cfg.DownloadTimeoutFor())

	server := api.NewServer(cfg, extractor, frontend.Dist())

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return 1
	}

	fmt.Printf("Listening on http://%s\n", server.GetActualAddr())
	fmt.Println("Press Ctrl+C to stop")

	// Start returns immediately; block forever.
	select {}
}

func runUpdate(checkOnly bool) int {
	if checkOnly {
		fmt.Println("Checking for updates...")
	} else {
		fmt.Println("Updating tubesnap...")
	}

	u := updater.NewUpdater(GitHubRepo, Version)

	latestVersion, hasUpdate, err := u.CheckForUpdate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error checking for updates: %v\n", err)
		return 1
	}

	if !hasUpdate {
		fmt.Printf("Already up to date (version %s)\n", Version)
		return 0
	}

	fmt.Printf("Update available: %s -> %s\n", Version, latestVersion)

	if checkOnly {
		fmt.Println("Run 'tubesnap update' to install the update")
		return 0
	}

	exePath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting executable path: %v\n", err)
		return 1
	}

	if err := u.Download(exePath); err != nil {
		fmt.Fprintf(os.Stderr, "Error updating: %v\n", err)
		return 1
	}

	fmt.Printf("Successfully updated to version %s\n", latestVersion)
	fmt.Println("Please restart the application")
	return 0
}
