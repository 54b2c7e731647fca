package sink

import (
	"sync"

	"github.com/sprocket78/ai-battle-app/core"
)

// Multi fans every event out to each sink in order.
type Multi []core.Sink

// Notify implements core.Sink.
func (m Multi) Notify(ev core.Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(ev)
		}
	}
}

// Recorder keeps every event in memory. Completed run events are also
// published on Completed().
type Recorder struct {
	mu        sync.Mutex
	events    []core.Event
	completed chan core.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{completed: make(chan core.Event, 16)}
}

// Notify implements core.Sink.
func (r *Recorder) Notify(ev core.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()

	if ev.Kind == core.EventRunCompleted {
		select {
		case r.completed <- ev:
		default:
		}
	}
}

// Completed yields run completion events as they arrive.
func (r *Recorder) Completed() <-chan core.Event { return r.completed }

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

// OfKind returns the recorded events of the given kind.
func (r *Recorder) OfKind(kind core.EventKind) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Event
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Progress returns the recorded progress percentages in order.
func (r *Recorder) Progress() []float64 {
	var out []float64
	for _, ev := range r.OfKind(core.EventProgress) {
		out = append(out, ev.Percent)
	}
	return out
}
