// Package ocr hides the recognition backend behind a single call.
//
// A backend is loaded once in the background by a Loader. The Dispatcher
// refuses work until the load has completed, and turns backend failures into
// a sentinel result so one bad region never ends the session.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
)

const (
	// FailureText is returned alongside an InferenceError.
	FailureText = "[OCR CRITICAL ERROR]"
	// NotLoadedText is what the UI shows for ErrEngineNotReady.
	NotLoadedText = "[OCR NOT LOADED]"
)

// Engine is a loaded recognition backend.
type Engine interface {
	// Name identifies the backend, e.g. "tesseract".
	Name() string
	// Recognize returns the text found in img.
	Recognize(ctx context.Context, img image.Image) (string, error)
	// Close releases native resources.
	Close() error
}

// LoadFunc builds an Engine. It may take a long time (model files, network).
type LoadFunc func(ctx context.Context) (Engine, error)

// ErrEngineNotReady is returned while the engine is not loaded.
var ErrEngineNotReady = errors.New("OCR engine is not loaded")

// LoadError reports that a backend failed to initialize.
type LoadError struct {
	Engine string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %q: %v", e.Engine, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// InferenceError reports that a backend failed on one region.
type InferenceError struct {
	Engine string
	Err    error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s recognition failed: %v", e.Engine, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
