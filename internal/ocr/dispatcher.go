package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
)

// Dispatcher sends cropped regions to whichever engine the Loader produced.
// It keeps no state between calls.
type Dispatcher struct {
	loader *Loader
}

// NewDispatcher creates a dispatcher bound to loader.
func NewDispatcher(loader *Loader) *Dispatcher {
	return &Dispatcher{loader: loader}
}

// State returns the engine load state.
func (d *Dispatcher) State() State {
	return d.loader.State()
}

// EngineName returns the configured backend name.
func (d *Dispatcher) EngineName() string {
	return d.loader.Name()
}

// Recognize runs one inference.
//
// If the engine is not ready it returns ErrEngineNotReady without touching the
// backend. If the backend fails or panics it logs the failure and returns
// FailureText together with an *InferenceError.
func (d *Dispatcher) Recognize(ctx context.Context, img image.Image) (string, error) {
	engine, err := d.loader.Engine()
	if err != nil {
		return "", err
	}
	var text string
	if img == nil || img.Bounds().Empty() {
		err = errors.New("empty image")
	} else {
		text, err = safeRecognize(ctx, engine, img)
	}
	if err != nil {
		ierr := &InferenceError{Engine: engine.Name(), Err: err}
		log.Printf("ocr: a critical error occurred during OCR: %v", ierr)
		return FailureText, ierr
	}
	return text, nil
}

func safeRecognize(ctx context.Context, engine Engine, img image.Image) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return engine.Recognize(ctx, img)
}
