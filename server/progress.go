package server

import (
	"sync"

	"github.com/sprocket78/ai-battle-app/core"
)

// ProgressTracker is a core.Sink remembering the latest progress per run.
type ProgressTracker struct {
	mu      sync.RWMutex
	percent map[string]float64
}

// NewProgressTracker creates an empty tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{percent: make(map[string]float64)}
}

// Notify implements core.Sink.
func (p *ProgressTracker) Notify(ev core.Event) {
	if ev.Kind != core.EventProgress {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percent[ev.RunID] = ev.Percent
}

// Percent returns the last reported progress of runID (0 when unknown).
func (p *ProgressTracker) Percent(runID string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.percent[runID]
}

// Forget drops every run except keep.
func (p *ProgressTracker) Forget(keep string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.percent {
		if id != keep {
			delete(p.percent, id)
		}
	}
}
