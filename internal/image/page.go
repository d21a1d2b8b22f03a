// Package image provides page discovery and decoding for a folder of scans.
package image

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Page is one decoded page image.
type Page struct {
	Path  string      // Original file path
	Image image.Image // Decoded pixels, EXIF orientation applied
}

// Load decodes the image at path.
func Load(path string) (*Page, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	// Downstream coordinates assume the origin is (0,0).
	if b := img.Bounds(); b.Min != (image.Point{}) {
		img = imaging.Crop(img, b)
	}
	return &Page{Path: path, Image: img}, nil
}

// Name returns the file name without directory.
func (p *Page) Name() string {
	return filepath.Base(p.Path)
}

// Width returns the image width in pixels.
func (p *Page) Width() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (p *Page) Height() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (p *Page) Size() image.Point {
	return image.Pt(p.Width(), p.Height())
}

// SupportedFormats returns the list of supported image extensions.
func SupportedFormats() []string {
	return []string{".jpg", ".jpeg", ".png", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
// The comparison ignores case.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// ScanFolder lists the supported images directly inside dir, sorted by full
// path. Subdirectories and other files are ignored.
func ScanFolder(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
