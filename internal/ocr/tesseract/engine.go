// Package tesseract is the local OCR backend: the crop is binarized with
// OpenCV and then read by Tesseract with vertical Japanese traineddata.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"jp-ocr/internal/ocr"

	"github.com/otiai10/gosseract/v2"
)

// Name is the backend identifier used in configuration.
const Name = "tesseract"

// Options configure the Tesseract client.
type Options struct {
	// TessdataPrefix is the traineddata directory. Empty uses the system default.
	TessdataPrefix string
	// Languages in priority order, e.g. jpn_vert, jpn.
	Languages []string
	// Threshold for binarization: pixels above it become white.
	Threshold uint8
}

// Engine wraps a gosseract client. The client is not safe for concurrent use,
// so every call holds mu.
type Engine struct {
	mu        sync.Mutex
	client    *gosseract.Client
	threshold uint8
}

// Load creates the client and runs a warm-up recognition so the traineddata
// is read before the first real request.
func Load(ctx context.Context, opts Options) (ocr.Engine, error) {
	if len(opts.Languages) == 0 {
		return nil, fmt.Errorf("no tesseract languages configured")
	}

	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(opts.Languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	// Manga balloons are a single block of vertical text.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK_VERT_TEXT); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}

	e := &Engine{client: client, threshold: opts.Threshold}

	if err := ctx.Err(); err != nil {
		client.Close()
		return nil, err
	}
	if _, err := e.Recognize(ctx, warmupImage()); err != nil {
		client.Close()
		return nil, fmt.Errorf("warm-up recognition failed: %w", err)
	}
	return e, nil
}

// Name implements ocr.Engine.
func (e *Engine) Name() string { return Name }

// Recognize binarizes img and returns the detected text lines joined with no
// separator.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	png, err := Binarize(img, e.threshold)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	lines := make([]string, 0, len(boxes))
	for _, b := range boxes {
		lines = append(lines, b.Word)
	}
	return joinLines(lines), nil
}

// Close implements ocr.Engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

// joinLines concatenates recognized lines. Vertical Japanese has no spaces
// between columns, so line breaks and padding are dropped.
func joinLines(lines []string) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(strings.Join(strings.Fields(l), ""))
	}
	return sb.String()
}

func warmupImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(16, 16, color.Gray{})
	return img
}
