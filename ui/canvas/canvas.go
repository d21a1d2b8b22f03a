// Package canvas provides the page view with pan, zoom, and region selection.
package canvas

import (
	"image"

	"jp-ocr/internal/app"
	pageimage "jp-ocr/internal/image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/spatial/r2"
)

// scrollStep is how far one wheel notch moves the page, in canvas units.
const scrollStep = 1.0

// PageCanvas displays the current page through the session viewport.
//
// Primary drag draws a selection. Secondary or middle drag pans. The wheel
// scrolls vertically, shift+wheel horizontally, ctrl+wheel zooms at the cursor.
type PageCanvas struct {
	widget.BaseWidget

	session *app.Session
	raster  *fynecanvas.Raster

	// Pixels of the current page, converted once for fast sampling.
	pixels *image.NRGBA

	// Interaction state
	button   desktop.MouseButton
	panning  bool
	lastPos  fyne.Position
	needsFit bool

	// Callbacks
	onRegion     func(app.Region)
	onZoomChange func(zoom float64)
}

var (
	_ desktop.Mouseable = (*PageCanvas)(nil)
	_ desktop.Hoverable = (*PageCanvas)(nil)
	_ fyne.Draggable    = (*PageCanvas)(nil)
	_ fyne.Scrollable   = (*PageCanvas)(nil)
)

// NewPageCanvas creates a canvas bound to session.
func NewPageCanvas(session *app.Session) *PageCanvas {
	pc := &PageCanvas{session: session}
	pc.raster = fynecanvas.NewRaster(pc.draw)
	pc.raster.ScaleMode = fynecanvas.ImageScalePixels
	pc.ExtendBaseWidget(pc)
	return pc
}

// OnRegion sets the callback for a completed, accepted selection. It runs on
// the UI goroutine.
func (pc *PageCanvas) OnRegion(callback func(app.Region)) {
	pc.onRegion = callback
}

// OnZoomChange sets a callback for zoom changes.
func (pc *PageCanvas) OnZoomChange(callback func(zoom float64)) {
	pc.onZoomChange = callback
}

// SetPage shows page, or clears the view when page is nil. The viewport must
// already be reset by the session.
func (pc *PageCanvas) SetPage(page *pageimage.Page) {
	if page == nil || page.Image == nil {
		pc.pixels = nil
	} else {
		pc.pixels = imaging.Clone(page.Image)
		// The page was loaded before the canvas had a size.
		pc.needsFit = pc.session.CanvasSize() == (r2.Vec{})
	}
	pc.Refresh()
}

// ZoomIn zooms by one step around the canvas center.
func (pc *PageCanvas) ZoomIn() {
	pc.session.Viewport().ZoomIn(pc.center())
	pc.zoomChanged()
}

// ZoomOut zooms out by one step around the canvas center.
func (pc *PageCanvas) ZoomOut() {
	pc.session.Viewport().ZoomOut(pc.center())
	pc.zoomChanged()
}

// FitToWindow scales the page to fit and centers it.
func (pc *PageCanvas) FitToWindow() {
	pc.session.Viewport().Fit(sizeVec(pc.Size()))
	pc.zoomChanged()
}

func (pc *PageCanvas) zoomChanged() {
	if pc.onZoomChange != nil {
		pc.onZoomChange(pc.session.Viewport().Zoom())
	}
	pc.Refresh()
}

func (pc *PageCanvas) center() r2.Vec {
	return r2.Scale(0.5, sizeVec(pc.Size()))
}

// MouseDown implements desktop.Mouseable.
func (pc *PageCanvas) MouseDown(ev *desktop.MouseEvent) {
	pc.button = ev.Button
	pc.lastPos = ev.Position
	switch ev.Button {
	case desktop.MouseButtonPrimary:
		pc.session.BeginSelection(posVec(ev.Position))
	case desktop.MouseButtonSecondary, desktop.MouseButtonTertiary:
		pc.panning = true
	}
	pc.Refresh()
}

// MouseUp implements desktop.Mouseable.
func (pc *PageCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonPrimary {
		pc.finishSelection(ev.Position)
	}
	pc.panning = false
	pc.button = 0
}

// Dragged implements fyne.Draggable. The driver only reports drags for the
// primary and middle buttons.
func (pc *PageCanvas) Dragged(ev *fyne.DragEvent) {
	pc.lastPos = ev.Position
	if pc.panning {
		pc.pan(r2.Vec{X: float64(ev.Dragged.DX), Y: float64(ev.Dragged.DY)})
		return
	}
	if pc.session.Selector().Active() {
		pc.session.UpdateSelection(posVec(ev.Position))
		pc.Refresh()
	}
}

// DragEnd implements fyne.Draggable.
func (pc *PageCanvas) DragEnd() {
	if pc.session.Selector().Active() {
		pc.finishSelection(pc.lastPos)
	}
	pc.panning = false
}

// MouseIn implements desktop.Hoverable.
func (pc *PageCanvas) MouseIn(ev *desktop.MouseEvent) {
	pc.lastPos = ev.Position
}

// MouseMoved implements desktop.Hoverable. Secondary-button drags arrive here
// rather than through Dragged.
func (pc *PageCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if pc.panning && pc.button == desktop.MouseButtonSecondary {
		delta := ev.Position.Subtract(pc.lastPos)
		pc.pan(r2.Vec{X: float64(delta.X), Y: float64(delta.Y)})
	}
	pc.lastPos = ev.Position
}

// MouseOut implements desktop.Hoverable.
func (pc *PageCanvas) MouseOut() {}

// Scrolled implements fyne.Scrollable.
func (pc *PageCanvas) Scrolled(ev *fyne.ScrollEvent) {
	mods := currentModifiers()
	dx := float64(ev.Scrolled.DX) * scrollStep
	dy := float64(ev.Scrolled.DY) * scrollStep

	switch {
	case mods&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0:
		vp := pc.session.Viewport()
		if dy > 0 {
			vp.ZoomIn(posVec(ev.Position))
		} else if dy < 0 {
			vp.ZoomOut(posVec(ev.Position))
		}
		pc.zoomChanged()
	case mods&fyne.KeyModifierShift != 0:
		pc.pan(r2.Vec{X: dy + dx})
	default:
		pc.pan(r2.Vec{X: dx, Y: dy})
	}
}

// CancelSelection drops an in-progress selection.
func (pc *PageCanvas) CancelSelection() {
	pc.session.CancelSelection()
	pc.Refresh()
}

func (pc *PageCanvas) pan(delta r2.Vec) {
	pc.session.Viewport().Pan(delta)
	pc.Refresh()
}

func (pc *PageCanvas) finishSelection(pos fyne.Position) {
	region, ok := pc.session.CaptureSelection(posVec(pos))
	pc.Refresh()
	if ok && pc.onRegion != nil {
		pc.onRegion(region)
	}
}

// resized records the new canvas size and centers a page that was loaded
// before the first layout.
func (pc *PageCanvas) resized(size fyne.Size) {
	v := sizeVec(size)
	if v == pc.session.CanvasSize() {
		return
	}
	pc.session.SetCanvasSize(v)
	if pc.needsFit && pc.pixels != nil && size.Width > 0 && size.Height > 0 {
		pc.needsFit = false
		pc.session.Viewport().Reset(pc.pixels.Bounds().Size(), v)
	}
}

// Refresh redraws the page.
func (pc *PageCanvas) Refresh() {
	pc.raster.Refresh()
}

// MinSize keeps the canvas usable when the window is small.
func (pc *PageCanvas) MinSize() fyne.Size {
	return fyne.NewSize(200, 200)
}

// CreateRenderer implements fyne.Widget.
func (pc *PageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &pageCanvasRenderer{canvas: pc}
}

type pageCanvasRenderer struct {
	canvas *PageCanvas
}

func (r *pageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
	r.canvas.resized(size)
}

func (r *pageCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.MinSize()
}

func (r *pageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *pageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *pageCanvasRenderer) Destroy() {}

// currentModifiers reports the held keyboard modifiers. Tests replace it.
var currentModifiers = func() fyne.KeyModifier {
	a := fyne.CurrentApp()
	if a == nil {
		return 0
	}
	if d, ok := a.Driver().(desktop.Driver); ok {
		return d.CurrentKeyModifiers()
	}
	return 0
}

func posVec(p fyne.Position) r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

func sizeVec(s fyne.Size) r2.Vec {
	return r2.Vec{X: float64(s.Width), Y: float64(s.Height)}
}
