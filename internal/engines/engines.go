// Package engines maps the configured backend identifier to a load function.
package engines

import (
	"context"
	"fmt"
	"sort"

	"jp-ocr/internal/config"
	"jp-ocr/internal/ocr"
	"jp-ocr/internal/ocr/tesseract"
	"jp-ocr/internal/ocr/vision"
)

var registry = map[string]func(*config.Config) ocr.LoadFunc{
	tesseract.Name: func(cfg *config.Config) ocr.LoadFunc {
		opts := tesseract.Options{
			TessdataPrefix: cfg.TessdataPrefix,
			Languages:      cfg.TesseractLangs,
			Threshold:      cfg.Threshold,
		}
		return func(ctx context.Context) (ocr.Engine, error) {
			return tesseract.Load(ctx, opts)
		}
	},
	vision.Name: func(cfg *config.Config) ocr.LoadFunc {
		vc := vision.Config{
			BaseURL: cfg.VisionURL,
			Model:   cfg.VisionModel,
			APIKey:  cfg.VisionAPIKey,
			Timeout: cfg.VisionTimeout,
		}
		return func(ctx context.Context) (ocr.Engine, error) {
			return vision.Load(ctx, vc)
		}
	},
}

// Names lists the known backend identifiers.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New returns the load function for cfg.Engine. Nothing is loaded until the
// function runs.
func New(cfg *config.Config) (ocr.LoadFunc, error) {
	build, ok := registry[cfg.Engine]
	if !ok {
		return nil, fmt.Errorf("unknown OCR engine %q (known: %v)", cfg.Engine, Names())
	}
	return build(cfg), nil
}

// NewLoader is New wrapped in an ocr.Loader.
func NewLoader(cfg *config.Config) (*ocr.Loader, error) {
	load, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return ocr.NewLoader(cfg.Engine, load), nil
}
