package core

import (
	"time"
)

// EventKind enumerates the notifications the controller emits.
type EventKind string

const (
	// EventResponseChunk carries one side's visible text (a reply or the stop marker).
	EventResponseChunk EventKind = "response_chunk"
	// EventError carries a run-ending error for one side.
	EventError EventKind = "error"
	// EventProgress carries the run progress in percent.
	EventProgress EventKind = "progress"
	// EventRunCompleted is the final event of every run.
	EventRunCompleted EventKind = "run_completed"
)

// Outcome describes how a run ended.
type Outcome string

const (
	// OutcomeSucceeded means every planned exchange completed.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeStopped means the user cancelled at a round boundary.
	OutcomeStopped Outcome = "stopped"
	// OutcomeDegraded means a backend error ended the run early.
	OutcomeDegraded Outcome = "degraded"
)

// Event is the unit of communication between the controller and the
// presentation layer. After emission it should be treated as immutable;
// slices are copies owned by the receiver. Fields not relevant to Kind are
// left at their zero value.
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// response_chunk / error
	Side       Side   `json:"side,omitempty"`
	Speaker    string `json:"speaker,omitempty"`
	Text       string `json:"text,omitempty"`
	Round      int    `json:"round,omitempty"`
	IsFollowup bool   `json:"is_followup,omitempty"`
	Stopped    bool   `json:"stopped,omitempty"`

	// error
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`

	// progress
	Percent float64 `json:"percent,omitempty"`

	// run_completed
	Outcome    Outcome    `json:"outcome,omitempty"`
	Transcript []Exchange `json:"transcript,omitempty"`
	ExportPath string     `json:"export_path,omitempty"`
}

func newEvent(runID string, kind EventKind) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseEvent reports a completed exchange to the side that produced it.
func NewResponseEvent(runID string, ex Exchange) Event {
	e := newEvent(runID, EventResponseChunk)
	e.Side = ex.Side
	e.Speaker = ex.Speaker
	e.Text = ex.Content()
	e.Timestamp = ex.Timestamp
	e.Round = ex.Round
	e.IsFollowup = ex.IsFollowup()
	e.Stopped = ex.Stopped
	return e
}

// NewStoppedEvent shows the stop marker on one side's stream.
func NewStoppedEvent(runID string, side Side, round int, ts time.Time) Event {
	e := newEvent(runID, EventResponseChunk)
	e.Side = side
	e.Speaker = SystemSpeaker
	e.Text = StoppedText
	e.Timestamp = ts
	e.Round = round
	e.IsFollowup = round > 0
	e.Stopped = true
	return e
}

// NewErrorEvent reports a run-ending error to one side.
func NewErrorEvent(runID string, side Side, err error) Event {
	e := newEvent(runID, EventError)
	e.Side = side
	e.ErrorKind = KindOf(err)
	e.Message = Describe(err)
	return e
}

// NewProgressEvent reports progress in percent (0..100).
func NewProgressEvent(runID string, percent float64) Event {
	e := newEvent(runID, EventProgress)
	e.Percent = percent
	return e
}

// NewRunCompletedEvent hands the transcript snapshot to the presentation layer.
func NewRunCompletedEvent(runID string, outcome Outcome, transcript []Exchange, exportPath string) Event {
	e := newEvent(runID, EventRunCompleted)
	e.Outcome = outcome
	e.Transcript = append([]Exchange(nil), transcript...)
	e.ExportPath = exportPath
	return e
}

// Sink receives controller notifications. Implementations must not block
// for long; the controller wraps sinks in an asynchronous queue so its worker
// never waits on presentation.
type Sink interface {
	Notify(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Notify implements Sink.
func (f SinkFunc) Notify(ev Event) { f(ev) }

// NopSink discards every event.
type NopSink struct{}

// Notify implements Sink.
func (NopSink) Notify(Event) {}
