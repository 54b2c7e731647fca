package battle

import (
	"context"
	"time"

	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/transcript"
)

// Run is the handle of one submitted run.
type Run struct {
	id      string
	cfg     core.RunConfig
	state   core.RunState
	started time.Time

	done   chan struct{}
	result *Result
}

func newRun(cfg core.RunConfig, started time.Time) *Run {
	return &Run{
		id:      core.NewID(),
		cfg:     cfg,
		started: started,
		done:    make(chan struct{}),
	}
}

// ID returns the run identifier carried by every event of the run.
func (r *Run) ID() string { return r.id }

// Config returns the normalized configuration the run executes.
func (r *Run) Config() core.RunConfig { return r.cfg }

// StartedAt returns the submission time.
func (r *Run) StartedAt() time.Time { return r.started }

// Done is closed once the run reached Completed and its result is available.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes or ctx is done.
func (r *Run) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-r.done:
		return r.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome if the run has finished.
func (r *Run) Result() (*Result, bool) {
	select {
	case <-r.done:
		return r.result, true
	default:
		return nil, false
	}
}

func (r *Run) finish(res *Result) {
	r.result = res
	close(r.done)
}

// Result is the final state of a run.
type Result struct {
	RunID      string          `json:"run_id"`
	Config     core.RunConfig  `json:"config"`
	Outcome    core.Outcome    `json:"outcome"`
	Transcript []core.Exchange `json:"transcript"`
	ExportPath string          `json:"export_path,omitempty"`
	// Err is the backend failure of a degraded run.
	Err        error     `json:"-"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Export renders the transcript in the flat text format.
func (r *Result) Export() string {
	return transcript.Render(r.Config.Prompt, r.Transcript)
}

// WriteFile saves the export to path.
func (r *Result) WriteFile(path string) error {
	return transcript.WriteFile(path, r.Export())
}
