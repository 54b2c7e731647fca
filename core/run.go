package core

import (
	"strings"
	"sync/atomic"
)

// DefaultMaxRounds is the upper bound applied to RunConfig.Rounds.
const DefaultMaxRounds = 10

// RunConfig is the immutable description of one submission. The controller
// copies it before the worker starts; nothing mutates it afterwards.
type RunConfig struct {
	Prompt     string `json:"prompt"`
	BattleMode bool   `json:"battle_mode"`
	Rounds     int    `json:"rounds"`
	ModelA     string `json:"model_a,omitempty"`
	ModelB     string `json:"model_b,omitempty"`
	AutoExport bool   `json:"auto_export"`
}

// Normalize returns a validated copy: the prompt is trimmed (empty prompts
// are rejected) and Rounds is clamped into [1, maxRounds]. A maxRounds <= 0
// falls back to DefaultMaxRounds.
func (c RunConfig) Normalize(maxRounds int) (RunConfig, error) {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	c.Prompt = strings.TrimSpace(c.Prompt)
	if c.Prompt == "" {
		return RunConfig{}, NewError(KindEmptyPromptRejected, "", "prompt must not be empty", nil)
	}
	if c.Rounds < 1 {
		c.Rounds = 1
	}
	if c.Rounds > maxRounds {
		c.Rounds = maxRounds
	}
	c.ModelA = strings.TrimSpace(c.ModelA)
	c.ModelB = strings.TrimSpace(c.ModelB)
	return c, nil
}

// FollowupRounds is the number of follow-up rounds the run will attempt.
func (c RunConfig) FollowupRounds() int {
	if !c.BattleMode {
		return 0
	}
	return c.Rounds
}

// ExpectedExchanges is the transcript length of a clean run.
func (c RunConfig) ExpectedExchanges() int {
	return 2 + 2*c.FollowupRounds()
}

// RunState holds the flags of one run that may be written from outside the
// worker. The worker only reads them at round boundaries.
type RunState struct {
	cancelled atomic.Bool
}

// Cancel marks the run as cancelled. Safe to call repeatedly and concurrently.
func (s *RunState) Cancel() { s.cancelled.Store(true) }

// Cancelled reports whether cancellation was requested.
func (s *RunState) Cancelled() bool { return s.cancelled.Load() }
