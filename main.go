// Package main provides the entry point for the JP OCR application.
package main

import (
	"context"
	"log"
	"os"

	"jp-ocr/internal/app"
	"jp-ocr/internal/config"
	"jp-ocr/internal/engines"
	"jp-ocr/internal/ocr"
	"jp-ocr/internal/version"
	"jp-ocr/ui/mainwindow"
	"jp-ocr/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const (
	appTitle = "JP OCR"
	appID    = "io.github.jpocr"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.EnvPath != "" {
		log.Printf("Loaded settings from %s", cfg.EnvPath)
	}

	loader, err := engines.NewLoader(cfg)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	session := app.NewSession(ocr.NewDispatcher(loader), cfg.MinSelection)
	loader.OnDone(func(state ocr.State, err error) {
		session.Emit(app.EventEngineStateChanged, app.EngineStatus{
			Name:  loader.Name(),
			State: state,
			Err:   err,
		})
	})

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.JPOCRTheme{})

	win := mainwindow.New(a, session, prefs.Load())

	// Handle command line arguments
	if len(os.Args) > 1 {
		if err := session.OpenFolder(os.Args[1]); err != nil {
			log.Printf("Failed to open folder %s: %v", os.Args[1], err)
		}
	}

	loader.Start(context.Background())
	win.ShowAndRun()

	if err := loader.Close(); err != nil {
		log.Printf("Failed to release OCR engine: %v", err)
	}
}
