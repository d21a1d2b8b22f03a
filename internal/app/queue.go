package app

import (
	"context"
	"log"
	"sync"
)

const queueSize = 64

// Queue runs transcript work on one worker goroutine in submission order, so
// lines land in the order the regions were drawn even when a backend is slow.
// Page markers go through the same queue to stay behind pending regions.
type Queue struct {
	session   *Session
	onOutcome func(Outcome)

	ctx  context.Context
	jobs chan func()
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewQueue starts the worker. onOutcome, if set, is called on the worker
// goroutine after each recognition.
func NewQueue(ctx context.Context, session *Session, onOutcome func(Outcome)) *Queue {
	q := &Queue{
		session:   session,
		onOutcome: onOutcome,
		ctx:       ctx,
		jobs:      make(chan func(), queueSize),
		done:      make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for job := range q.jobs {
		job()
	}
}

// Recognize queues region for recognition.
func (q *Queue) Recognize(region Region) {
	q.submit(func() {
		out := q.session.Recognize(q.ctx, region)
		if q.onOutcome != nil {
			q.onOutcome(out)
		}
	})
}

// AddPageMarker queues a page marker behind any pending regions.
func (q *Queue) AddPageMarker() {
	q.submit(func() { q.session.AddPageMarker() })
}

func (q *Queue) submit(job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		log.Printf("session: queue closed, dropping job")
		return
	}
	q.jobs <- job
}

// Close stops accepting work and waits for queued jobs to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	<-q.done
}
