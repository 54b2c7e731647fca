// Package transcript accumulates the exchanges of one battle run and renders
// them into the flat text export format.
//
// The export starts with a "User Query:" header followed by one block per
// exchange:
//
//	User Query: What is 2+2?
//
//	[2025-01-02 15:04:05] Initial Grok: 4
//
//	[2025-01-02 15:04:06] Initial ChatGPT: Four.
//	    It is also 2*2.
//
// Continuation lines of multi-line content are indented by four spaces, so
// blank lines inside a reply are never mistaken for block separators. Parse
// reverses the rendering.
package transcript

import (
	"sync"

	"github.com/sprocket78/ai-battle-app/core"
)

// Transcript is the ordered, append-only record of one run.
type Transcript struct {
	prompt string

	mu        sync.RWMutex
	exchanges []core.Exchange
}

// New creates an empty transcript for prompt.
func New(prompt string) *Transcript {
	return &Transcript{prompt: prompt}
}

// Prompt returns the user query the run started from.
func (t *Transcript) Prompt() string { return t.prompt }

// Append adds ex to the end of the transcript.
func (t *Transcript) Append(ex core.Exchange) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exchanges = append(t.exchanges, ex)
}

// Exchanges returns a copy of the recorded exchanges.
func (t *Transcript) Exchanges() []core.Exchange {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]core.Exchange(nil), t.exchanges...)
}
