package tesseract

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DefaultThreshold is the fixed binarization cut.
const DefaultThreshold = 190

// Binarize converts img to grayscale, applies a fixed threshold (values
// above threshold become 255, the rest 0) and returns the result PNG-encoded.
func Binarize(img image.Image, threshold uint8) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, float32(threshold), 255, gocv.ThresholdBinary)

	buf, err := gocv.IMEncode(gocv.PNGFileExt, binary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory released by Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
