package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestJoinLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"none", nil, ""},
		{"single", []string{"こんにちは"}, "こんにちは"},
		{"columns", []string{"そうか\n", "わかった"}, "そうかわかった"},
		{"padding", []string{" ドン ", "\tドン\n"}, "ドンドン"},
		{"inner space", []string{"あ い"}, "あい"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinLines(tt.lines); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBinarize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{191, 191, 191, 255})
	img.Set(1, 0, color.RGBA{190, 190, 190, 255})
	img.Set(2, 0, color.RGBA{10, 10, 10, 255})

	data, err := Binarize(img, DefaultThreshold)
	if err != nil {
		t.Fatalf("Binarize failed: %v", err)
	}

	out, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if out.Bounds().Dx() != 3 || out.Bounds().Dy() != 1 {
		t.Fatalf("size: got %v", out.Bounds())
	}

	want := []uint8{255, 0, 0}
	for x, w := range want {
		g := color.GrayModel.Convert(out.At(x, 0)).(color.Gray)
		if g.Y != w {
			t.Errorf("pixel %d: got %d, want %d", x, g.Y, w)
		}
	}
}

func TestBinarize_Empty(t *testing.T) {
	if _, err := Binarize(image.NewRGBA(image.Rectangle{}), DefaultThreshold); err == nil {
		t.Error("empty image should fail")
	}
}

func TestLoad_NoLanguages(t *testing.T) {
	if _, err := Load(context.Background(), Options{Threshold: DefaultThreshold}); err == nil {
		t.Error("Load without languages should fail")
	}
}
