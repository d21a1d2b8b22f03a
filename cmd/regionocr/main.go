// Command regionocr recognizes one rectangle of a page image with the
// configured OCR engine and prints the resulting transcript line.
//
// Usage: regionocr -image page.png -rect x0,y0,x1,y1 [-legend OT:] [-out file]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"jp-ocr/internal/config"
	"jp-ocr/internal/engines"
	pageimage "jp-ocr/internal/image"
	"jp-ocr/internal/ocr"
	"jp-ocr/internal/selection"
	"jp-ocr/internal/transcript"
	"jp-ocr/internal/version"
	"jp-ocr/internal/viewport"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	flagImage   = flag.String("image", "", "Page image to read")
	flagRect    = flag.String("rect", "", "Region in image pixels: x0,y0,x1,y1")
	flagLegend  = flag.String("legend", transcript.LegendNone, "Legend prefix for the line, e.g. OT:")
	flagOut     = flag.String("out", "", "Append the line to this transcript file instead of printing")
	flagTimeout = flag.Duration("timeout", 2*time.Minute, "Maximum time to wait for the engine")
	flagVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if *flagVersion {
		fmt.Println("regionocr", version.String())
		return
	}
	if *flagImage == "" || *flagRect == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "regionocr: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	lo, hi, err := parseRect(*flagRect)
	if err != nil {
		return err
	}
	legend := *flagLegend
	if legend == "" {
		legend = transcript.LegendNone
	}
	if !transcript.IsLegend(legend) {
		return fmt.Errorf("unknown legend %q", legend)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	page, err := pageimage.Load(*flagImage)
	if err != nil {
		return err
	}

	region, ok := selectRegion(page, lo, hi, cfg.MinSelection)
	if !ok {
		return fmt.Errorf("region %s is smaller than %dpx or outside the %dx%d image",
			*flagRect, cfg.MinSelection, page.Width(), page.Height())
	}

	loader, err := engines.NewLoader(cfg)
	if err != nil {
		return err
	}
	defer loader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *flagTimeout)
	defer cancel()

	loader.Start(ctx)
	if _, err := loader.Wait(ctx); err != nil {
		return fmt.Errorf("failed to load OCR engine: %w", err)
	}

	text, err := ocr.NewDispatcher(loader).Recognize(ctx, selection.Crop(page.Image, region))
	var ierr *ocr.InferenceError
	if err != nil && !errors.As(err, &ierr) {
		return err
	}

	t := transcript.New()
	if *flagOut != "" {
		if data, rerr := os.ReadFile(*flagOut); rerr == nil {
			t.SetText(string(data))
		}
	}
	line := t.AppendRecognition(text, legend)

	if *flagOut == "" {
		fmt.Print(line)
	} else if err := t.Export(*flagOut); err != nil {
		return err
	}
	if ierr != nil {
		return ierr
	}
	return nil
}

// selectRegion runs the rectangle through an identity viewport and the
// selector so the same size and clamping rules apply as in the window.
func selectRegion(page *pageimage.Page, lo, hi r2.Vec, minSize int) (image.Rectangle, bool) {
	vp := viewport.New()
	size := page.Size()
	vp.Reset(size, r2.Vec{X: float64(size.X), Y: float64(size.Y)})

	sel := selection.New(float64(minSize))
	sel.Begin(lo)
	return sel.End(hi, vp, page.Image.Bounds())
}

func parseRect(s string) (lo, hi r2.Vec, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return lo, hi, fmt.Errorf("invalid rect %q: want x0,y0,x1,y1", s)
	}
	var v [4]float64
	for i, p := range parts {
		v[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return lo, hi, fmt.Errorf("invalid rect %q: %w", s, err)
		}
	}
	return r2.Vec{X: v[0], Y: v[1]}, r2.Vec{X: v[2], Y: v[3]}, nil
}
