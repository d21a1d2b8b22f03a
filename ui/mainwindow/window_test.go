package mainwindow

import (
	"context"
	goimage "image"
	"testing"
	"time"

	"jp-ocr/internal/app"
	"jp-ocr/internal/ocr"
	"jp-ocr/ui/prefs"

	"fyne.io/fyne/v2/test"
)

// slowWideEngine answers by crop width; wide crops are slow.
type slowWideEngine struct{}

func (slowWideEngine) Name() string { return "slow" }

func (slowWideEngine) Recognize(ctx context.Context, img goimage.Image) (string, error) {
	if img.Bounds().Dx() > 10 {
		time.Sleep(50 * time.Millisecond)
		return "first", nil
	}
	return "second", nil
}

func (slowWideEngine) Close() error { return nil }

func newWindow(t *testing.T, l *ocr.Loader) *MainWindow {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	s := app.NewSession(ocr.NewDispatcher(l), 5)
	return New(a, s, prefs.LoadFrom(t.TempDir()))
}

func readyLoader(t *testing.T, e ocr.Engine) *ocr.Loader {
	t.Helper()
	l := ocr.NewLoader(e.Name(), func(ctx context.Context) (ocr.Engine, error) { return e, nil })
	l.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	return l
}

func region(w int) app.Region {
	r := goimage.Rect(0, 0, w, 10)
	return app.Region{Rect: r, Image: goimage.NewGray(r), Legend: `"":`}
}

func TestRegionsKeepGestureOrder(t *testing.T) {
	mw := newWindow(t, readyLoader(t, slowWideEngine{}))

	mw.onRegion(region(20))
	mw.onAddPageMarker()
	mw.onRegion(region(5))
	mw.queue.Close()

	want := "\"\": first\n\npage1\n\"\": second\n"
	if got := mw.session.Transcript(); got != want {
		t.Errorf("transcript:\n got %q\nwant %q", got, want)
	}
	if mw.transcript.Text != want {
		t.Errorf("editor: got %q", mw.transcript.Text)
	}
}

func TestEngineNotReadyShowsError(t *testing.T) {
	mw := newWindow(t, ocr.NewLoader("never", nil))

	mw.onRegion(region(20))
	mw.queue.Close()

	if mw.statusBar.Text != ocr.NotLoadedText {
		t.Errorf("status: got %q", mw.statusBar.Text)
	}
	if mw.session.Transcript() != "" {
		t.Errorf("not-ready recognition changed the transcript: %q", mw.session.Transcript())
	}
	if mw.Canvas().Overlays().Top() == nil {
		t.Error("no dialog shown")
	}
}

func TestSaveWithoutFolderShowsError(t *testing.T) {
	mw := newWindow(t, readyLoader(t, slowWideEngine{}))

	mw.onSave()
	if mw.Canvas().Overlays().Top() == nil {
		t.Error("no dialog shown")
	}
}
