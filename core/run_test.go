package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConfig_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         RunConfig
		max        int
		wantRounds int
		wantPrompt string
	}{
		{"trims prompt", RunConfig{Prompt: "  What is 2+2?\n", Rounds: 3}, 10, 3, "What is 2+2?"},
		{"clamps low", RunConfig{Prompt: "p", Rounds: 0}, 10, 1, "p"},
		{"clamps high", RunConfig{Prompt: "p", Rounds: 42}, 10, 10, "p"},
		{"default max", RunConfig{Prompt: "p", Rounds: 42}, 0, DefaultMaxRounds, "p"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize(tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRounds, got.Rounds)
			assert.Equal(t, tt.wantPrompt, got.Prompt)
		})
	}
}

func TestRunConfig_NormalizeRejectsEmptyPrompt(t *testing.T) {
	_, err := RunConfig{Prompt: " \t\n"}.Normalize(10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyPromptRejected))
}

func TestRunConfig_ExpectedExchanges(t *testing.T) {
	assert.Equal(t, 2, RunConfig{Prompt: "p", Rounds: 5}.ExpectedExchanges())
	assert.Equal(t, 12, RunConfig{Prompt: "p", BattleMode: true, Rounds: 5}.ExpectedExchanges())
}

func TestRunState_ConcurrentCancel(t *testing.T) {
	var s RunState
	assert.False(t, s.Cancelled())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Cancel()
			_ = s.Cancelled()
		}()
	}
	wg.Wait()
	assert.True(t, s.Cancelled())
}
