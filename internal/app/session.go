// Package app holds the session state of the OCR tool and its events.
package app

import (
	"context"
	"errors"
	"fmt"
	goimage "image"
	"log"
	"path/filepath"
	"sync"

	"jp-ocr/internal/image"
	"jp-ocr/internal/ocr"
	"jp-ocr/internal/selection"
	"jp-ocr/internal/transcript"
	"jp-ocr/internal/viewport"

	"gonum.org/v1/gonum/spatial/r2"
)

// EventType identifies different session events.
type EventType int

const (
	EventPageLoaded         EventType = iota // data: *image.Page, nil after a decode failure
	EventTranscriptChanged                   // data: string, the full buffer
	EventEngineStateChanged                  // data: EngineStatus
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// EngineStatus is the payload of EventEngineStateChanged.
type EngineStatus struct {
	Name  string
	State ocr.State
	Err   error
}

// OutcomeKind classifies the result of a finished selection.
type OutcomeKind int

const (
	OutcomeDiscarded  OutcomeKind = iota // too small, off the image, or no page
	OutcomeRecognized                    // text appended (possibly nothing if empty)
	OutcomeFailed                        // backend failed, failure marker appended
	OutcomeNotReady                      // engine not loaded, nothing appended
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeRecognized:
		return "recognized"
	case OutcomeFailed:
		return "failed"
	case OutcomeNotReady:
		return "not ready"
	default:
		return "unknown"
	}
}

// Outcome describes what a selection produced.
type Outcome struct {
	Kind OutcomeKind
	Rect goimage.Rectangle // image-space region, empty when discarded
	Text string            // raw recognizer output
	Line string            // line appended to the transcript, "" if none
	Err  error
}

// Region is a validated crop waiting for recognition.
type Region struct {
	Rect   goimage.Rectangle
	Image  goimage.Image
	Legend string
}

// Session is the state of one tool window.
//
// The viewport and selector belong to the UI goroutine. Everything else is
// guarded by mu so recognition can finish on a worker goroutine.
type Session struct {
	mu sync.RWMutex

	viewport   *viewport.Viewport
	selector   *selection.Selector
	canvasSize r2.Vec

	dir   string
	pages []string
	index int
	page  *image.Page

	transcript *transcript.Transcript
	legend     string

	dispatcher *ocr.Dispatcher

	listeners map[EventType][]EventListener
}

// NewSession creates a session bound to a dispatcher. minSelection is the
// smallest accepted region side in image pixels.
func NewSession(dispatcher *ocr.Dispatcher, minSelection int) *Session {
	if minSelection <= 0 {
		minSelection = selection.DefaultMinSize
	}
	return &Session{
		viewport:   viewport.New(),
		selector:   selection.New(float64(minSelection)),
		transcript: transcript.New(),
		legend:     transcript.Legends[0],
		dispatcher: dispatcher,
		listeners:  make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Viewport returns the page transform.
func (s *Session) Viewport() *viewport.Viewport { return s.viewport }

// Selector returns the drag state.
func (s *Session) Selector() *selection.Selector { return s.selector }

// SetCanvasSize records the drawing area, used to center newly loaded pages.
func (s *Session) SetCanvasSize(size r2.Vec) { s.canvasSize = size }

// CanvasSize returns the last recorded drawing area.
func (s *Session) CanvasSize() r2.Vec { return s.canvasSize }

// EngineName returns the configured backend name.
func (s *Session) EngineName() string { return s.dispatcher.EngineName() }

// EngineState returns the backend load state.
func (s *Session) EngineState() ocr.State { return s.dispatcher.State() }

// OpenFolder scans dir and loads its first page. ErrNoImagesFound leaves the
// previous folder untouched.
func (s *Session) OpenFolder(dir string) error {
	paths, err := image.ScanFolder(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return ErrNoImagesFound
	}

	s.mu.Lock()
	s.dir = dir
	s.pages = paths
	s.index = 0
	s.mu.Unlock()

	log.Printf("session: opened %s (%d pages)", dir, len(paths))
	return s.LoadPage(0)
}

// Folder returns the open folder, "" if none.
func (s *Session) Folder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// PageCount returns the number of pages in the folder.
func (s *Session) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// PageIndex returns the current page index.
func (s *Session) PageIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Page returns the decoded current page, nil if none.
func (s *Session) Page() *image.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// LoadPage decodes page i, wrapping around in both directions. On failure the
// current image is cleared and an *ImageDecodeError is returned.
func (s *Session) LoadPage(i int) error {
	s.mu.Lock()
	n := len(s.pages)
	if n == 0 {
		s.mu.Unlock()
		return ErrNoFolderOpen
	}
	s.index = ((i % n) + n) % n
	path := s.pages[s.index]
	s.mu.Unlock()

	s.selector.Cancel()

	page, err := image.Load(path)
	if err != nil {
		s.mu.Lock()
		s.page = nil
		s.mu.Unlock()
		s.viewport.Clear()
		log.Printf("session: %v", err)
		s.Emit(EventPageLoaded, (*image.Page)(nil))
		return &ImageDecodeError{Path: path, Err: err}
	}

	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
	s.viewport.Reset(page.Size(), s.canvasSize)

	s.Emit(EventPageLoaded, page)
	return nil
}

// NextPage loads the following page, wrapping at the end.
func (s *Session) NextPage() error {
	return s.LoadPage(s.PageIndex() + 1)
}

// PrevPage loads the preceding page, wrapping at the start.
func (s *Session) PrevPage() error {
	return s.LoadPage(s.PageIndex() - 1)
}

// BeginSelection starts a drag at screen point p.
func (s *Session) BeginSelection(p r2.Vec) {
	s.selector.Begin(p)
}

// UpdateSelection moves the free corner of the drag.
func (s *Session) UpdateSelection(p r2.Vec) {
	s.selector.Update(p)
}

// CancelSelection drops the drag without recognizing anything.
func (s *Session) CancelSelection() {
	s.selector.Cancel()
}

// CaptureSelection ends the drag at p and crops the page. It must run on the
// goroutine that owns the viewport. ok is false when the drag is discarded.
func (s *Session) CaptureSelection(p r2.Vec) (Region, bool) {
	page := s.Page()
	var bounds goimage.Rectangle
	if page != nil {
		bounds = page.Image.Bounds()
	}

	rect, ok := s.selector.End(p, s.viewport, bounds)
	if !ok || page == nil {
		return Region{}, false
	}
	return Region{
		Rect:   rect,
		Image:  selection.Crop(page.Image, rect),
		Legend: s.Legend(),
	}, true
}

// Recognize dispatches a captured region and appends the result to the
// transcript. It is safe to call from any goroutine.
func (s *Session) Recognize(ctx context.Context, region Region) Outcome {
	out := Outcome{Rect: region.Rect}

	text, err := s.dispatcher.Recognize(ctx, region.Image)
	out.Text = text
	out.Err = err

	switch {
	case err == nil:
		out.Kind = OutcomeRecognized
	case isInferenceError(err):
		out.Kind = OutcomeFailed
	default:
		out.Kind = OutcomeNotReady
		return out
	}

	s.mu.Lock()
	out.Line = s.transcript.AppendRecognition(text, region.Legend)
	buf := s.transcript.String()
	s.mu.Unlock()

	if out.Line != "" {
		s.Emit(EventTranscriptChanged, buf)
	}
	return out
}

// EndSelection runs the whole flow: capture, recognize and append.
func (s *Session) EndSelection(ctx context.Context, p r2.Vec) Outcome {
	region, ok := s.CaptureSelection(p)
	if !ok {
		return Outcome{Kind: OutcomeDiscarded}
	}
	return s.Recognize(ctx, region)
}

// Legend returns the legend applied to new lines.
func (s *Session) Legend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.legend
}

// SetLegend selects the legend for new lines.
func (s *Session) SetLegend(legend string) error {
	if !transcript.IsLegend(legend) {
		return fmt.Errorf("unknown legend %q", legend)
	}
	s.mu.Lock()
	s.legend = legend
	s.mu.Unlock()
	return nil
}

// Transcript returns the current buffer.
func (s *Session) Transcript() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.String()
}

// SetTranscriptText replaces the buffer with user-edited text. No event is
// emitted since the editor is the source.
func (s *Session) SetTranscriptText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.SetText(text)
}

// PageCounter returns the number the next page marker will carry.
func (s *Session) PageCounter() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.Counter()
}

// AddPageMarker appends the next pageN line.
func (s *Session) AddPageMarker() string {
	s.mu.Lock()
	line := s.transcript.AppendPageMarker()
	buf := s.transcript.String()
	s.mu.Unlock()

	s.Emit(EventTranscriptChanged, buf)
	return line
}

// DefaultExportPath returns Raw_text.txt inside the folder of the current page.
func (s *Session) DefaultExportPath() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.pages) == 0 {
		return "", ErrNoFolderOpen
	}
	return transcript.DefaultExportPath(filepath.Dir(s.pages[s.index])), nil
}

// Export writes the transcript to path.
func (s *Session) Export(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.transcript.Export(path); err != nil {
		return err
	}
	log.Printf("session: transcript saved to %s", path)
	return nil
}

func isInferenceError(err error) bool {
	var ierr *ocr.InferenceError
	return errors.As(err, &ierr)
}
