package canvas

import (
	"image"
	"image/color"
	"math"

	"jp-ocr/internal/app"

	"gonum.org/v1/gonum/spatial/r2"
)

// draw is the raster drawing function. w and h are device pixels; the
// viewport works in canvas units, so every pixel is mapped through scale.
func (pc *PageCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(output, app.ColorBackground)

	size := pc.Size()
	if w <= 0 || h <= 0 || size.Width <= 0 {
		return output
	}
	scale := float64(w) / float64(size.Width)

	vp := pc.session.Viewport()
	if pc.pixels != nil && vp.Loaded() {
		pc.drawPage(output, scale)
	}

	if lo, hi, ok := pc.session.Selector().Rect(); ok {
		drawSelectionRect(output,
			int(math.Round(lo.X*scale)), int(math.Round(lo.Y*scale)),
			int(math.Round(hi.X*scale)), int(math.Round(hi.Y*scale)),
			app.ColorActive, int(math.Max(2, math.Round(2*scale))))
	}
	return output
}

// drawPage samples the page with nearest-neighbour lookup.
func (pc *PageCanvas) drawPage(output *image.RGBA, scale float64) {
	vp := pc.session.Viewport()
	src := pc.pixels
	srcBounds := src.Bounds()
	imgSize := vp.ImageSize()

	// Only walk the screen area of the visible part of the page.
	visible := vp.VisibleImageRect(sizeVec(pc.Size()))
	if visible.Empty() {
		return
	}
	tl := r2.Scale(scale, vp.ImageToScreen(r2.Vec{X: float64(visible.Min.X), Y: float64(visible.Min.Y)}))
	br := r2.Scale(scale, vp.ImageToScreen(r2.Vec{X: float64(visible.Max.X), Y: float64(visible.Max.Y)}))
	area := image.Rect(
		int(math.Floor(tl.X)), int(math.Floor(tl.Y)),
		int(math.Ceil(br.X)), int(math.Ceil(br.Y)),
	).Intersect(output.Bounds())

	inv := 1 / scale
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			p := vp.ScreenToImage(r2.Vec{X: (float64(x) + 0.5) * inv, Y: (float64(y) + 0.5) * inv})
			srcX, srcY := int(math.Floor(p.X)), int(math.Floor(p.Y))
			if srcX < 0 || srcX >= imgSize.X || srcY < 0 || srcY >= imgSize.Y {
				continue
			}
			si := src.PixOffset(srcX+srcBounds.Min.X, srcY+srcBounds.Min.Y)
			di := output.PixOffset(x, y)
			// Pages are opaque after decoding; alpha is copied as-is.
			copy(output.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
}

func fill(output *image.RGBA, c color.NRGBA) {
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i] = c.R
		output.Pix[i+1] = c.G
		output.Pix[i+2] = c.B
		output.Pix[i+3] = c.A
	}
}

// drawSelectionRect draws a dashed rectangle outline.
func drawSelectionRect(output *image.RGBA, x1, y1, x2, y2 int, col color.Color, thickness int) {
	bounds := output.Bounds()
	set := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			output.Set(x, y, col)
		}
	}
	dash := 4 * thickness

	for t := 0; t < thickness; t++ {
		// Top and bottom edges
		for x := x1; x <= x2; x++ {
			if (x-x1)%(2*dash) < dash {
				set(x, y1+t)
				set(x, y2-t)
			}
		}
		// Left and right edges
		for y := y1; y <= y2; y++ {
			if (y-y1)%(2*dash) < dash {
				set(x1+t, y)
				set(x2-t, y)
			}
		}
	}
}
