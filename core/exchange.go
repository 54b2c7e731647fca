package core

import (
	"time"

	"github.com/google/uuid"
)

// Side identifies which party of the battle an exchange or event belongs to.
type Side string

const (
	// SideA is the backend that always speaks first.
	SideA Side = "a"
	// SideB answers A.
	SideB Side = "b"
	// SideSystem authors control entries such as the stop marker.
	SideSystem Side = "system"
)

// StoppedText is the visible content of the stop marker.
const StoppedText = "Battle stopped by user."

// SystemSpeaker is the speaker label of control entries.
const SystemSpeaker = "System"

// Exchange is one logical request/response pair. The controller creates it
// right before dispatch and completes it when the backend call returns.
type Exchange struct {
	ID         string    `json:"id"`
	Side       Side      `json:"side"`
	Speaker    string    `json:"speaker"`
	Model      string    `json:"model,omitempty"`
	Round      int       `json:"round"`
	Prompt     string    `json:"prompt,omitempty"`
	Response   string    `json:"response,omitempty"`
	ErrKind    ErrorKind `json:"error_kind,omitempty"`
	ErrMessage string    `json:"error_message,omitempty"`
	Stopped    bool      `json:"stopped,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewExchange starts an exchange for the given side and round, stamped at ts.
func NewExchange(side Side, speaker, model, prompt string, round int, ts time.Time) Exchange {
	return Exchange{
		ID:        NewID(),
		Side:      side,
		Speaker:   speaker,
		Model:     model,
		Round:     round,
		Prompt:    prompt,
		Timestamp: ts,
	}
}

// NewStopExchange builds the synthetic marker appended when a run is cancelled
// before the given round.
func NewStopExchange(round int, ts time.Time) Exchange {
	return Exchange{
		ID:        NewID(),
		Side:      SideSystem,
		Speaker:   SystemSpeaker,
		Round:     round,
		Stopped:   true,
		Timestamp: ts,
	}
}

// Complete fills in the outcome of the backend call.
func (e Exchange) Complete(response string, err error) Exchange {
	if err != nil {
		e.ErrKind = KindOf(err)
		e.ErrMessage = Describe(err)
		return e
	}
	e.Response = response
	return e
}

// Failed reports whether the exchange recorded an error.
func (e Exchange) Failed() bool { return e.ErrKind != "" }

// IsFollowup reports whether the exchange belongs to a follow-up round.
func (e Exchange) IsFollowup() bool { return e.Round > 0 }

// Content renders the visible text of the exchange.
func (e Exchange) Content() string {
	switch {
	case e.Stopped:
		return StoppedText
	case e.Failed():
		return "Error: " + e.ErrMessage
	default:
		return e.Response
	}
}

// NewID generates a new unique identifier for runs, exchanges and events.
func NewID() string { return uuid.NewString() }
