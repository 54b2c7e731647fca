package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Constructors(t *testing.T) {
	ts := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	ex := NewExchange(SideB, "ChatGPT", "gpt-4", "Respond to this: hi", 2, ts).Complete("hello", nil)

	resp := NewResponseEvent("run-1", ex)
	assert.Equal(t, EventResponseChunk, resp.Kind)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, SideB, resp.Side)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, 2, resp.Round)
	assert.True(t, resp.IsFollowup)
	assert.Equal(t, ts, resp.Timestamp)
	assert.NotEmpty(t, resp.ID)

	stopped := NewStoppedEvent("run-1", SideA, 3, ts)
	assert.True(t, stopped.Stopped)
	assert.Equal(t, StoppedText, stopped.Text)

	errEv := NewErrorEvent("run-1", SideA, NewError(KindRateLimited, "Grok", "", nil))
	assert.Equal(t, EventError, errEv.Kind)
	assert.Equal(t, KindRateLimited, errEv.ErrorKind)
	assert.Equal(t, "Rate limit exceeded. Try again later.", errEv.Message)

	prog := NewProgressEvent("run-1", 50)
	assert.Equal(t, 50.0, prog.Percent)
}

func TestEvent_RunCompletedCopiesTranscript(t *testing.T) {
	exchanges := []Exchange{
		NewExchange(SideA, "Grok", "grok-beta", "q", 0, time.Now()).Complete("a", nil),
	}
	ev := NewRunCompletedEvent("run-1", OutcomeSucceeded, exchanges, "")

	exchanges[0].Response = "mutated"
	require.Len(t, ev.Transcript, 1)
	assert.Equal(t, "a", ev.Transcript[0].Response)
	assert.Equal(t, OutcomeSucceeded, ev.Outcome)
}

func TestExchange_Content(t *testing.T) {
	ts := time.Now()
	ok := NewExchange(SideA, "Grok", "grok-beta", "q", 0, ts).Complete("four", nil)
	assert.Equal(t, "four", ok.Content())
	assert.False(t, ok.Failed())
	assert.False(t, ok.IsFollowup())

	failed := NewExchange(SideA, "Grok", "grok-beta", "q", 0, ts).
		Complete("ignored", &Error{Kind: KindServerError, StatusCode: 503})
	assert.True(t, failed.Failed())
	assert.Empty(t, failed.Response)
	assert.Equal(t, KindServerError, failed.ErrKind)
	assert.Equal(t, "Error: Server error. Please try again later.", failed.Content())

	stop := NewStopExchange(2, ts)
	assert.Equal(t, SideSystem, stop.Side)
	assert.Equal(t, StoppedText, stop.Content())
}

func TestSinkFunc(t *testing.T) {
	var got []Event
	var s Sink = SinkFunc(func(ev Event) { got = append(got, ev) })
	s.Notify(NewProgressEvent("r", 25))
	NopSink{}.Notify(NewProgressEvent("r", 50))
	require.Len(t, got, 1)
	assert.Equal(t, 25.0, got[0].Percent)
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
