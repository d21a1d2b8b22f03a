// Package viewport maps between canvas (screen) coordinates and source image
// coordinates under zoom and pan.
package viewport

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	MinZoom  = 0.1
	MaxZoom  = 8.0
	ZoomStep = 1.2
)

// Viewport holds the zoom factor and the canvas position of the image origin.
//
//	screen = image*zoom + offset
//	image  = (screen - offset) / zoom
type Viewport struct {
	zoom      float64
	offset    r2.Vec
	imageSize image.Point
	loaded    bool
}

// New returns an empty viewport with zoom 1.0 and no image.
func New() *Viewport {
	return &Viewport{zoom: 1.0}
}

// ClampZoom saturates a requested zoom to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1.0
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// Reset prepares the viewport for a newly loaded image: zoom 1.0 and the
// image centered in the canvas.
func (v *Viewport) Reset(imageSize image.Point, canvasSize r2.Vec) {
	v.imageSize = imageSize
	v.loaded = true
	v.zoom = 1.0
	v.offset = center(imageSize, canvasSize, v.zoom)
}

// Fit zooms so the whole image is visible and centers it.
func (v *Viewport) Fit(canvasSize r2.Vec) {
	if !v.loaded || v.imageSize.X <= 0 || v.imageSize.Y <= 0 {
		return
	}
	if canvasSize.X <= 0 || canvasSize.Y <= 0 {
		return
	}
	z := math.Min(canvasSize.X/float64(v.imageSize.X), canvasSize.Y/float64(v.imageSize.Y))
	v.zoom = ClampZoom(z)
	v.offset = center(v.imageSize, canvasSize, v.zoom)
}

// Clear forgets the current image. Zoom and pan become no-ops until the next Reset.
func (v *Viewport) Clear() {
	v.loaded = false
	v.imageSize = image.Point{}
	v.zoom = 1.0
	v.offset = r2.Vec{}
}

func center(imageSize image.Point, canvasSize r2.Vec, zoom float64) r2.Vec {
	w := float64(imageSize.X) * zoom
	h := float64(imageSize.Y) * zoom
	return r2.Vec{
		X: math.Floor((canvasSize.X - w) / 2),
		Y: math.Floor((canvasSize.Y - h) / 2),
	}
}

// Loaded reports whether an image is attached.
func (v *Viewport) Loaded() bool { return v.loaded }

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Offset returns the canvas position of the image origin.
func (v *Viewport) Offset() r2.Vec { return v.offset }

// ImageSize returns the native size of the attached image.
func (v *Viewport) ImageSize() image.Point { return v.imageSize }

// ScreenToImage converts a canvas point to image coordinates.
func (v *Viewport) ScreenToImage(p r2.Vec) r2.Vec {
	return r2.Scale(1/v.zoom, r2.Sub(p, v.offset))
}

// ImageToScreen converts an image point to canvas coordinates.
func (v *Viewport) ImageToScreen(p r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(v.zoom, p), v.offset)
}

// Rescale changes the zoom while keeping the image content under anchor
// (a canvas point) in place. The requested zoom is clamped first.
func (v *Viewport) Rescale(newZoom float64, anchor r2.Vec) {
	if !v.loaded {
		return
	}
	newZoom = ClampZoom(newZoom)
	ratio := newZoom / v.zoom
	v.offset = r2.Sub(anchor, r2.Scale(ratio, r2.Sub(anchor, v.offset)))
	v.zoom = newZoom
}

// ZoomIn multiplies the zoom by ZoomStep around anchor.
func (v *Viewport) ZoomIn(anchor r2.Vec) {
	v.Rescale(v.zoom*ZoomStep, anchor)
}

// ZoomOut divides the zoom by ZoomStep around anchor.
func (v *Viewport) ZoomOut(anchor r2.Vec) {
	v.Rescale(v.zoom/ZoomStep, anchor)
}

// Pan translates the image by delta canvas units.
func (v *Viewport) Pan(delta r2.Vec) {
	if !v.loaded {
		return
	}
	v.offset = r2.Add(v.offset, delta)
}

// VisibleImageRect returns the image-space rectangle covered by a canvas of
// the given size, clipped to the image bounds.
func (v *Viewport) VisibleImageRect(canvasSize r2.Vec) image.Rectangle {
	if !v.loaded {
		return image.Rectangle{}
	}
	tl := v.ScreenToImage(r2.Vec{})
	br := v.ScreenToImage(canvasSize)
	r := image.Rect(
		int(math.Floor(tl.X)), int(math.Floor(tl.Y)),
		int(math.Ceil(br.X)), int(math.Ceil(br.Y)),
	)
	return r.Intersect(image.Rectangle{Max: v.imageSize})
}
