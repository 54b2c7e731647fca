// Package sink provides presentation-layer adapters for battle events: an
// asynchronous in-order queue that keeps the worker from blocking, fan-out,
// an in-memory recorder and a styled console writer.
package sink

import (
	"sync"

	"github.com/sprocket78/ai-battle-app/core"
)

// Queue delivers events to the wrapped sink on its own goroutine, in the
// order they were notified. Notify never blocks; the backlog is unbounded.
type Queue struct {
	next core.Sink

	mu      sync.Mutex
	cond    *sync.Cond
	pending []core.Event
	closed  bool
	done    chan struct{}
}

// NewQueue starts a delivery goroutine in front of next. Call Close to drain
// and stop it.
func NewQueue(next core.Sink) *Queue {
	q := &Queue{next: next, done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Notify implements core.Sink. Events notified after Close are dropped.
func (q *Queue) Notify(ev core.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, ev)
	q.cond.Signal()
}

// Close delivers the remaining backlog and stops the goroutine.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Signal()
	}
	q.mu.Unlock()
	<-q.done
}

// Len returns the number of undelivered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, ev := range batch {
			q.next.Notify(ev)
		}
	}
}
