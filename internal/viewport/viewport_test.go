package viewport

import (
	"image"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

const tol = 1e-9

func vecClose(a, b r2.Vec) bool {
	return scalar.EqualWithinAbs(a.X, b.X, tol) && scalar.EqualWithinAbs(a.Y, b.Y, tol)
}

func loaded(t *testing.T) *Viewport {
	t.Helper()
	v := New()
	v.Reset(image.Pt(800, 1200), r2.Vec{X: 1000, Y: 900})
	return v
}

func TestReset_CentersImage(t *testing.T) {
	v := New()
	v.Reset(image.Pt(400, 300), r2.Vec{X: 1001, Y: 700})

	if v.Zoom() != 1.0 {
		t.Errorf("zoom: got %v, want 1.0", v.Zoom())
	}
	want := r2.Vec{X: 300, Y: 200}
	if v.Offset() != want {
		t.Errorf("offset: got %+v, want %+v", v.Offset(), want)
	}
	if !v.Loaded() {
		t.Error("viewport should be loaded after Reset")
	}
}

func TestReset_ImageLargerThanCanvas(t *testing.T) {
	v := New()
	v.Reset(image.Pt(1000, 1000), r2.Vec{X: 500, Y: 400})

	want := r2.Vec{X: -250, Y: -300}
	if v.Offset() != want {
		t.Errorf("offset: got %+v, want %+v", v.Offset(), want)
	}
}

func TestInverseLaw(t *testing.T) {
	states := []struct {
		name   string
		zoom   float64
		anchor r2.Vec
		pan    r2.Vec
	}{
		{"identity", 1.0, r2.Vec{}, r2.Vec{}},
		{"zoomed in", 3.7, r2.Vec{X: 120, Y: 45}, r2.Vec{X: -13.5, Y: 8}},
		{"zoomed out", 0.25, r2.Vec{X: 999, Y: 1}, r2.Vec{X: 400, Y: -220.25}},
		{"max zoom", 8.0, r2.Vec{X: 500, Y: 450}, r2.Vec{}},
		{"min zoom", 0.1, r2.Vec{X: 0, Y: 900}, r2.Vec{X: 7, Y: 7}},
	}
	points := []r2.Vec{
		{X: 0, Y: 0}, {X: 799, Y: 1199}, {X: 12.25, Y: 600.5}, {X: -40, Y: 1500},
	}

	for _, st := range states {
		t.Run(st.name, func(t *testing.T) {
			v := loaded(t)
			v.Rescale(st.zoom, st.anchor)
			v.Pan(st.pan)
			for _, p := range points {
				got := v.ScreenToImage(v.ImageToScreen(p))
				if !vecClose(got, p) {
					t.Errorf("round trip of %+v: got %+v", p, got)
				}
			}
		})
	}
}

func TestRescale_AnchorInvariance(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		newZoom float64
		anchor  r2.Vec
	}{
		{"in at origin", 1.0, 2.0, r2.Vec{}},
		{"in at cursor", 1.0, 1.2, r2.Vec{X: 321, Y: 654}},
		{"out at cursor", 4.0, 0.5, r2.Vec{X: 10, Y: 880}},
		{"to bound", 2.0, 8.0, r2.Vec{X: 500, Y: 500}},
		{"anchor off image", 1.5, 0.3, r2.Vec{X: -200, Y: 2000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := loaded(t)
			v.Rescale(tt.start, r2.Vec{X: 37, Y: 91})
			before := v.ScreenToImage(tt.anchor)

			v.Rescale(tt.newZoom, tt.anchor)

			after := v.ScreenToImage(tt.anchor)
			if !vecClose(before, after) {
				t.Errorf("image point under anchor moved: %+v -> %+v", before, after)
			}
			if v.Zoom() != tt.newZoom {
				t.Errorf("zoom: got %v, want %v", v.Zoom(), tt.newZoom)
			}
		})
	}
}

func TestRescale_Clamping(t *testing.T) {
	tests := []struct {
		requested float64
		want      float64
	}{
		{0.01, MinZoom},
		{0.0999, MinZoom},
		{-3, MinZoom},
		{8.5, MaxZoom},
		{1000, MaxZoom},
		{0.1, 0.1},
		{8.0, 8.0},
	}

	for _, tt := range tests {
		v := loaded(t)
		v.Rescale(tt.requested, r2.Vec{X: 100, Y: 100})
		if v.Zoom() != tt.want {
			t.Errorf("Rescale(%v): zoom %v, want %v", tt.requested, v.Zoom(), tt.want)
		}
	}
}

func TestClampedRescale_StillAnchored(t *testing.T) {
	v := loaded(t)
	anchor := r2.Vec{X: 640, Y: 360}
	before := v.ScreenToImage(anchor)

	v.Rescale(50, anchor)

	if !vecClose(before, v.ScreenToImage(anchor)) {
		t.Error("saturated rescale should keep the anchor fixed")
	}
}

func TestZoomStep(t *testing.T) {
	v := loaded(t)
	v.ZoomIn(r2.Vec{})
	if !scalar.EqualWithinAbs(v.Zoom(), 1.2, tol) {
		t.Errorf("ZoomIn: got %v, want 1.2", v.Zoom())
	}
	v.ZoomOut(r2.Vec{})
	v.ZoomOut(r2.Vec{})
	if !scalar.EqualWithinAbs(v.Zoom(), 1/1.2, tol) {
		t.Errorf("ZoomOut: got %v, want %v", v.Zoom(), 1/1.2)
	}
}

func TestPan(t *testing.T) {
	v := loaded(t)
	start := v.Offset()
	zoom := v.Zoom()

	v.Pan(r2.Vec{X: 15, Y: -30})

	want := r2.Vec{X: start.X + 15, Y: start.Y - 30}
	if v.Offset() != want {
		t.Errorf("offset: got %+v, want %+v", v.Offset(), want)
	}
	if v.Zoom() != zoom {
		t.Error("pan must not change zoom")
	}
}

func TestNoImage_NoOp(t *testing.T) {
	v := New()
	v.Rescale(4, r2.Vec{X: 10, Y: 10})
	v.Pan(r2.Vec{X: 10, Y: 10})
	v.ZoomIn(r2.Vec{})
	v.Fit(r2.Vec{X: 100, Y: 100})

	if v.Zoom() != 1.0 || v.Offset() != (r2.Vec{}) {
		t.Errorf("unloaded viewport changed: zoom=%v offset=%+v", v.Zoom(), v.Offset())
	}
}

func TestClear(t *testing.T) {
	v := loaded(t)
	v.Rescale(3, r2.Vec{X: 5, Y: 5})
	v.Clear()

	if v.Loaded() {
		t.Error("Clear should detach the image")
	}
	v.Pan(r2.Vec{X: 1, Y: 1})
	if v.Offset() != (r2.Vec{}) {
		t.Error("pan after Clear should be a no-op")
	}
}

func TestFit(t *testing.T) {
	v := New()
	v.Reset(image.Pt(2000, 1000), r2.Vec{X: 500, Y: 500})
	v.Fit(r2.Vec{X: 500, Y: 500})

	if !scalar.EqualWithinAbs(v.Zoom(), 0.25, tol) {
		t.Errorf("zoom: got %v, want 0.25", v.Zoom())
	}
	want := r2.Vec{X: 0, Y: 125}
	if v.Offset() != want {
		t.Errorf("offset: got %+v, want %+v", v.Offset(), want)
	}
}

func TestVisibleImageRect(t *testing.T) {
	v := New()
	v.Reset(image.Pt(100, 100), r2.Vec{X: 100, Y: 100})
	v.Rescale(2, r2.Vec{})

	got := v.VisibleImageRect(r2.Vec{X: 100, Y: 100})
	want := image.Rect(0, 0, 50, 50)
	if got != want {
		t.Errorf("visible rect: got %v, want %v", got, want)
	}
}
