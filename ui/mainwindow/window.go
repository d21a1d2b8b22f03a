// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"jp-ocr/internal/app"
	pageimage "jp-ocr/internal/image"
	"jp-ocr/internal/ocr"
	"jp-ocr/internal/transcript"
	"jp-ocr/internal/version"
	"jp-ocr/ui/canvas"
	"jp-ocr/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const titlePrefix = "JP OCR"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *app.Session
	prefs   *prefs.Prefs

	canvas     *canvas.PageCanvas
	transcript *widget.Entry
	legend     *widget.Select
	statusBar  *widget.Label
	split      *container.Split

	// Serializes recognitions and page markers. cancel aborts the one in
	// flight on close.
	queue  *app.Queue
	cancel context.CancelFunc

	loadFailureOnce sync.Once
}

// New creates a new main window.
func New(fyneApp fyne.App, session *app.Session, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(titlePrefix + " - Loading Engine...")

	ctx, cancel := context.WithCancel(context.Background())
	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		prefs:   p,
		cancel:  cancel,
	}
	mw.queue = app.NewQueue(ctx, session, mw.onOutcome)

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.SetCloseIntercept(mw.onClose)
	mw.Resize(fyne.NewSize(1280, 860))

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewPageCanvas(mw.session)
	mw.canvas.OnRegion(mw.onRegion)
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.updateStatus(fmt.Sprintf("Zoom: %.0f%%", zoom*100))
	})

	mw.statusBar = widget.NewLabel("Ready")

	mw.transcript = widget.NewMultiLineEntry()
	mw.transcript.Wrapping = fyne.TextWrapWord
	mw.transcript.SetPlaceHolder("Drag a rectangle over a speech balloon...")
	mw.transcript.OnChanged = mw.session.SetTranscriptText

	mw.legend = widget.NewSelect(transcript.Legends, mw.onLegendSelected)
	legend := mw.prefs.String(prefs.KeyLegend)
	if !transcript.IsLegend(legend) {
		legend = mw.session.Legend()
	}
	mw.legend.SetSelected(legend)

	controls := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.transcript,      // center
	)

	mw.split = container.NewHSplit(mw.canvas, controls)
	mw.split.SetOffset(mw.prefs.SplitOffset())

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.split,                          // center
	)

	mw.SetContent(content)

	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			mw.canvas.CancelSelection()
		}
	})
}

// createToolbar creates the control buttons above the transcript.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	nav := container.NewGridWithColumns(3,
		widget.NewButton("Open Folder", mw.onOpenFolder),
		widget.NewButton("< Prev", mw.onPrev),
		widget.NewButton("Next >", mw.onNext),
	)
	zoom := container.NewGridWithColumns(3,
		widget.NewButton("Zoom In", mw.canvas.ZoomIn),
		widget.NewButton("Zoom Out", mw.canvas.ZoomOut),
		widget.NewButton("Fit", mw.canvas.FitToWindow),
	)
	output := container.NewGridWithColumns(2,
		widget.NewButton("Add Page Marker", mw.onAddPageMarker),
		widget.NewButton("Save Output", mw.onSave),
	)

	return container.NewVBox(
		nav,
		zoom,
		output,
		container.NewBorder(nil, nil, widget.NewLabel("Legend:"), nil, mw.legend),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Folder...", mw.onOpenFolder),
		fyne.NewMenuItem("Save Output...", mw.onSave),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Next Page", mw.onNext),
		fyne.NewMenuItem("Previous Page", mw.onPrev),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventPageLoaded, func(data interface{}) {
		page, _ := data.(*pageimage.Page)
		mw.canvas.SetPage(page)
		if page == nil {
			return
		}
		mw.SetTitle(fmt.Sprintf("%s (%s) - %s", titlePrefix, mw.engineLabel(), page.Name()))
		mw.updateStatus(fmt.Sprintf("Page %d/%d: %s (%dx%d)",
			mw.session.PageIndex()+1, mw.session.PageCount(), page.Name(), page.Width(), page.Height()))
	})

	mw.session.On(app.EventTranscriptChanged, func(data interface{}) {
		if text, ok := data.(string); ok {
			mw.setTranscript(text)
		}
	})

	mw.session.On(app.EventEngineStateChanged, func(data interface{}) {
		status, ok := data.(app.EngineStatus)
		if !ok {
			return
		}
		mw.onEngineState(status)
	})
}

func (mw *MainWindow) engineLabel() string {
	return strings.ToUpper(mw.session.EngineName())
}

// setTranscript shows text and moves the cursor to the end.
func (mw *MainWindow) setTranscript(text string) {
	mw.transcript.SetText(text)
	lines := strings.Split(text, "\n")
	mw.transcript.CursorRow = len(lines) - 1
	mw.transcript.CursorColumn = len([]rune(lines[len(lines)-1]))
	mw.transcript.Refresh()
}

func (mw *MainWindow) onEngineState(status app.EngineStatus) {
	switch status.State {
	case ocr.StateReady:
		if mw.session.Page() == nil {
			mw.SetTitle(fmt.Sprintf("%s - %s", titlePrefix, mw.engineLabel()))
		}
		mw.updateStatus(fmt.Sprintf("%s engine loaded", status.Name))
	case ocr.StateFailed:
		mw.SetTitle(titlePrefix + " - ENGINE FAILED TO LOAD")
		mw.updateStatus("OCR engine failed to load")
		mw.loadFailureOnce.Do(func() {
			dialog.ShowError(fmt.Errorf("could not load the %s OCR engine:\n%v", status.Name, status.Err), mw.Window)
		})
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// lastFolder returns the last used folder as a ListableURI, or nil.
func (mw *MainWindow) lastFolder() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastFolder)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// Action handlers

func (mw *MainWindow) onOpenFolder() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		mw.openFolder(uri.Path())
	}, mw.Window)
	if loc := mw.lastFolder(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) openFolder(dir string) {
	err := mw.session.OpenFolder(dir)
	switch {
	case errors.Is(err, app.ErrNoImagesFound):
		dialog.ShowInformation("No Images", "No supported image files found.", mw.Window)
		return
	case err != nil:
		mw.showLoadError(err)
	}
	mw.prefs.SetString(prefs.KeyLastFolder, dir)
}

func (mw *MainWindow) onNext() {
	if mw.session.PageCount() == 0 {
		return
	}
	mw.showLoadError(mw.session.NextPage())
}

func (mw *MainWindow) onPrev() {
	if mw.session.PageCount() == 0 {
		return
	}
	mw.showLoadError(mw.session.PrevPage())
}

func (mw *MainWindow) showLoadError(err error) {
	var derr *app.ImageDecodeError
	if errors.As(err, &derr) {
		mw.SetTitle(fmt.Sprintf("%s (%s) - %s", titlePrefix, mw.engineLabel(), filepath.Base(derr.Path)))
		mw.updateStatus("Image failed to load")
		dialog.ShowError(fmt.Errorf("failed to load image:\n%v", derr.Err), mw.Window)
		return
	}
	if err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onLegendSelected(legend string) {
	if err := mw.session.SetLegend(legend); err != nil {
		log.Printf("mainwindow: %v", err)
		return
	}
	mw.prefs.SetString(prefs.KeyLegend, legend)
}

// onRegion queues recognition so a slow backend does not freeze the window.
func (mw *MainWindow) onRegion(region app.Region) {
	mw.updateStatus(fmt.Sprintf("Recognizing %dx%d region...", region.Rect.Dx(), region.Rect.Dy()))
	mw.queue.Recognize(region)
}

// onOutcome runs on the queue goroutine.
func (mw *MainWindow) onOutcome(out app.Outcome) {
	switch out.Kind {
	case app.OutcomeNotReady:
		mw.updateStatus(ocr.NotLoadedText)
		if mw.session.EngineState() == ocr.StateLoading {
			dialog.ShowError(errors.New("OCR engine is still loading. Please wait."), mw.Window)
		} else {
			dialog.ShowError(errors.New("OCR engine is not loaded. Please restart."), mw.Window)
		}
	case app.OutcomeFailed:
		mw.updateStatus(fmt.Sprintf("Recognition failed: %v", out.Err))
	case app.OutcomeRecognized:
		if out.Line == "" {
			mw.updateStatus("No text found")
		} else {
			mw.updateStatus(fmt.Sprintf("Recognized %d characters", len([]rune(out.Text))))
		}
	}
}

func (mw *MainWindow) onAddPageMarker() {
	mw.queue.AddPageMarker()
}

func (mw *MainWindow) onSave() {
	path, err := mw.session.DefaultExportPath()
	if err != nil {
		dialog.ShowError(fmt.Errorf("nothing to save: %w", err), mw.Window)
		return
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		out := writer.URI().Path()
		if err := mw.session.Export(out); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		dialog.ShowInformation("Saved", "Output saved to "+out, mw.Window)
	}, mw.Window)
	fd.SetFileName(filepath.Base(path))
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".txt"}))
	if loc, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(path))); err == nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onClose() {
	mw.cancel()
	mw.queue.Close()
	mw.prefs.SetFloat(prefs.KeySplitOffset, mw.split.Offset)
	if err := mw.prefs.Save(); err != nil {
		log.Printf("mainwindow: failed to save preferences to %s: %v", mw.prefs.Path(), err)
	}
	mw.Close()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About JP OCR",
		fmt.Sprintf("JP OCR %s\n\n"+
			"Transcribe Japanese manga pages region by region.\n\n"+
			"Engine: %s",
			version.String(), mw.engineLabel()),
		mw.Window)
}
