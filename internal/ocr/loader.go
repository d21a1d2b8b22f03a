package ocr

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// State is the engine load state.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader runs a LoadFunc once in a background goroutine and publishes the
// result. The engine and error fields are written before done is closed and
// only read after, so readers never see a partially built engine.
type Loader struct {
	name  string
	load  LoadFunc
	state atomic.Int32

	once   sync.Once
	done   chan struct{}
	engine Engine
	err    error

	onDone func(State, error)
}

// NewLoader creates a loader for the named backend. Nothing runs until Start.
func NewLoader(name string, load LoadFunc) *Loader {
	return &Loader{
		name: name,
		load: load,
		done: make(chan struct{}),
	}
}

// Name returns the backend name.
func (l *Loader) Name() string { return l.name }

// OnDone registers a callback invoked once, from the load goroutine, with the
// terminal state. Register it before Start.
func (l *Loader) OnDone(callback func(State, error)) {
	l.onDone = callback
}

// Start launches the load. Later calls do nothing.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		l.state.Store(int32(StateLoading))
		go l.run(ctx)
	})
}

func (l *Loader) run(ctx context.Context) {
	engine, err := l.safeLoad(ctx)
	if err == nil && engine == nil {
		err = fmt.Errorf("backend returned no engine")
	}

	final := StateReady
	if err != nil {
		final = StateFailed
		l.err = &LoadError{Engine: l.name, Err: err}
		log.Printf("ocr: %v", l.err)
	} else {
		l.engine = engine
		log.Printf("ocr: %s loaded successfully", l.name)
	}
	l.state.Store(int32(final))
	close(l.done)

	if l.onDone != nil {
		l.onDone(final, l.err)
	}
}

func (l *Loader) safeLoad(ctx context.Context) (engine Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			engine = nil
			err = fmt.Errorf("panic during load: %v", r)
		}
	}()
	return l.load(ctx)
}

// State returns the current load state.
func (l *Loader) State() State {
	return State(l.state.Load())
}

// Engine returns the loaded engine without blocking. Before the load finishes
// it returns ErrEngineNotReady; after a failed load it returns an error that
// wraps both ErrEngineNotReady and the LoadError.
func (l *Loader) Engine() (Engine, error) {
	select {
	case <-l.done:
	default:
		return nil, ErrEngineNotReady
	}
	if l.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineNotReady, l.err)
	}
	return l.engine, nil
}

// Wait blocks until the load finishes or ctx ends.
func (l *Loader) Wait(ctx context.Context) (Engine, error) {
	select {
	case <-l.done:
		return l.Engine()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases the engine if one was loaded.
func (l *Loader) Close() error {
	select {
	case <-l.done:
		if l.engine != nil {
			return l.engine.Close()
		}
	default:
	}
	return nil
}
