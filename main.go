package main

import (
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"tubesnap/frontend"
)

func main() {
	app := NewApp()

	err := wails.Run(&options.App{
		Title:  "tubesnap",
		Width:  1100,
		Height: 780,
		AssetServer: &assetserver.Options{
			Assets: frontend.Dist(),
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		println("Error:", err.Error())
	}
}
