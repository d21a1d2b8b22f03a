// Package selection tracks rubber-band selections on the canvas and turns them
// into image-space crop rectangles.
package selection

import (
	"image"
	"math"

	"jp-ocr/internal/viewport"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultMinSize is the smallest accepted selection, in image pixels per side.
// Anything smaller is treated as an accidental click.
const DefaultMinSize = 5

// Selector holds the transient state of one click-drag gesture.
type Selector struct {
	MinSize float64

	active bool
	start  r2.Vec
	end    r2.Vec
}

// New creates a selector with the given minimum size. Non-positive values use
// DefaultMinSize.
func New(minSize float64) *Selector {
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	return &Selector{MinSize: minSize}
}

// Begin opens a provisional rectangle at p (screen coordinates).
func (s *Selector) Begin(p r2.Vec) {
	s.active = true
	s.start = p
	s.end = p
}

// Update moves the opposite corner. Screen space only.
func (s *Selector) Update(p r2.Vec) {
	if !s.active {
		return
	}
	s.end = p
}

// Active reports whether a gesture is in progress.
func (s *Selector) Active() bool { return s.active }

// Rect returns the normalized provisional rectangle in screen coordinates.
func (s *Selector) Rect() (lo, hi r2.Vec, ok bool) {
	if !s.active {
		return r2.Vec{}, r2.Vec{}, false
	}
	lo, hi = normalize(s.start, s.end)
	return lo, hi, true
}

// Cancel drops the gesture without producing a rectangle.
func (s *Selector) Cancel() {
	s.active = false
	s.start = r2.Vec{}
	s.end = r2.Vec{}
}

// End closes the gesture at p and returns the selected region in image pixels,
// clamped to bounds. It returns false when no gesture was open, when either
// image-space side is below MinSize, or when the region lies outside the image.
// The gesture is discarded in every case.
func (s *Selector) End(p r2.Vec, vp *viewport.Viewport, bounds image.Rectangle) (image.Rectangle, bool) {
	if !s.active {
		return image.Rectangle{}, false
	}
	start := s.start
	s.Cancel()

	if vp == nil || !vp.Loaded() {
		return image.Rectangle{}, false
	}

	a := vp.ScreenToImage(start)
	b := vp.ScreenToImage(p)
	lo, hi := normalize(a, b)

	minSize := s.MinSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	if hi.X-lo.X < minSize || hi.Y-lo.Y < minSize {
		return image.Rectangle{}, false
	}

	r := image.Rect(
		int(math.Floor(lo.X)), int(math.Floor(lo.Y)),
		int(math.Floor(hi.X)), int(math.Floor(hi.Y)),
	).Intersect(bounds)
	if r.Empty() {
		return image.Rectangle{}, false
	}
	return r, true
}

func normalize(a, b r2.Vec) (lo, hi r2.Vec) {
	return r2.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		r2.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
}

// Crop copies the region out of src. The source image is never modified; the
// result has its origin at (0, 0).
func Crop(src image.Image, r image.Rectangle) image.Image {
	return imaging.Crop(src, r)
}
