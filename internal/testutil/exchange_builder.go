package testutil

import (
	"fmt"
	"time"

	"github.com/sprocket78/ai-battle-app/core"
)

// ExchangeBuilder provides a fluent helper for constructing exchanges in tests.
// Example:
//
//	ex := NewExchangeBuilder().Side(core.SideB).Speaker("ChatGPT").Round(2).Response("hi").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type ExchangeBuilder struct {
	id       string
	side     core.Side
	speaker  string
	model    string
	round    int
	prompt   string
	response string
	err      error
	stopped  bool
	ts       time.Time
}

// NewExchangeBuilder creates a builder for side A speaker "Grok" at a fixed time.
func NewExchangeBuilder() *ExchangeBuilder {
	return &ExchangeBuilder{
		side:    core.SideA,
		speaker: "Grok",
		ts:      time.Date(2025, 1, 2, 15, 4, 5, 0, time.Local),
	}
}

// ID overrides the auto-generated exchange ID (chainable).
func (b *ExchangeBuilder) ID(id string) *ExchangeBuilder { b.id = id; return b }

// Side sets the party (chainable).
func (b *ExchangeBuilder) Side(s core.Side) *ExchangeBuilder { b.side = s; return b }

// Speaker sets the display name (chainable).
func (b *ExchangeBuilder) Speaker(name string) *ExchangeBuilder { b.speaker = name; return b }

// Model sets the model identifier (chainable).
func (b *ExchangeBuilder) Model(m string) *ExchangeBuilder { b.model = m; return b }

// Round sets the round; 0 is the initial exchange (chainable).
func (b *ExchangeBuilder) Round(r int) *ExchangeBuilder { b.round = r; return b }

// Prompt sets the text sent to the backend (chainable).
func (b *ExchangeBuilder) Prompt(p string) *ExchangeBuilder { b.prompt = p; return b }

// Response sets the backend reply (chainable).
func (b *ExchangeBuilder) Response(r string) *ExchangeBuilder { b.response = r; return b }

// Err records a failed call (chainable).
func (b *ExchangeBuilder) Err(err error) *ExchangeBuilder { b.err = err; return b }

// Stopped turns the exchange into the stop marker (chainable).
func (b *ExchangeBuilder) Stopped() *ExchangeBuilder { b.stopped = true; return b }

// At sets the timestamp (chainable).
func (b *ExchangeBuilder) At(ts time.Time) *ExchangeBuilder { b.ts = ts; return b }

// Build finalizes and returns the exchange.
func (b *ExchangeBuilder) Build() core.Exchange {
	var ex core.Exchange
	if b.stopped {
		ex = core.NewStopExchange(b.round, b.ts)
	} else {
		ex = core.NewExchange(b.side, b.speaker, b.model, b.prompt, b.round, b.ts).Complete(b.response, b.err)
	}
	if b.id != "" {
		ex.ID = b.id
	}
	return ex
}

// Battle builds the exchanges of a clean run: an initial pair followed by
// rounds follow-up pairs, timestamps one second apart.
func Battle(rounds int) []core.Exchange {
	start := time.Date(2025, 1, 2, 15, 4, 5, 0, time.Local)
	out := make([]core.Exchange, 0, 2+2*rounds)
	for r := 0; r <= rounds; r++ {
		for _, side := range []core.Side{core.SideA, core.SideB} {
			speaker := "Grok"
			if side == core.SideB {
				speaker = "ChatGPT"
			}
			out = append(out, NewExchangeBuilder().
				Side(side).
				Speaker(speaker).
				Round(r).
				Response(fmt.Sprintf("%s reply %d", speaker, r)).
				At(start.Add(time.Duration(len(out))*time.Second)).
				Build())
		}
	}
	return out
}
