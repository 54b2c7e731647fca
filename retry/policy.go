// Package retry implements the per-call retry policy shared by both battle
// backends: bounded attempts with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/logging"
)

// Options configures a Policy.
type Options struct {
	// MaxAttempts counts the first call; values < 1 mean a single attempt.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// Jitter is the backoff randomization factor in [0, 1).
	Jitter float64
	// FailFast lists retryable kinds that should nevertheless end the call
	// immediately (e.g. Unauthorized).
	FailFast []core.ErrorKind
	// Timer drives the waits; nil uses real time.
	Timer  backoff.Timer
	Logger logging.Logger
}

// DefaultOptions returns 3 attempts, 1s initial delay doubling up to 10s, no jitter.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2,
		Logger:          logging.NoOpLogger{},
	}
}

// Policy retries classified backend failures. It holds no per-call state and
// may be shared by concurrent callers.
type Policy struct {
	opts Options
}

// New builds a Policy from DefaultOptions adjusted by optFns.
func New(optFns ...func(o *Options)) *Policy {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Policy{opts: opts}
}

// MaxAttempts returns the attempt bound.
func (p *Policy) MaxAttempts() int { return p.opts.MaxAttempts }

func (p *Policy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.InitialInterval
	b.MaxInterval = p.opts.MaxInterval
	b.Multiplier = p.opts.Multiplier
	b.RandomizationFactor = p.opts.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Schedule returns the nominal delays between attempts, ignoring jitter.
func (p *Policy) Schedule() []time.Duration {
	b := p.newBackOff()
	b.RandomizationFactor = 0
	out := make([]time.Duration, 0, p.opts.MaxAttempts-1)
	for i := 1; i < p.opts.MaxAttempts; i++ {
		out = append(out, b.NextBackOff())
	}
	return out
}

// Do runs op until it succeeds, fails with a non-retryable or fail-fast
// kind, or exhausts MaxAttempts. The last failure is returned as produced by
// op. A context cancelled during a wait ends the call with a transport error.
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := 0

	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !p.shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		p.opts.Logger.Warn("backend call failed, retrying",
			"attempt", attempt,
			"max_attempts", p.opts.MaxAttempts,
			"delay", delay,
			"kind", core.KindOf(err).String(),
			"error", err.Error(),
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), uint64(p.opts.MaxAttempts-1)), ctx)
	err := backoff.RetryNotifyWithTimer(operation, b, notify, p.opts.Timer)
	if err == nil {
		return nil
	}
	var ce *core.Error
	if !errors.As(err, &ce) && ctx.Err() != nil {
		return core.NewError(core.KindTransportError, "", "request aborted", err)
	}
	return err
}

func (p *Policy) shouldRetry(err error) bool {
	kind := core.KindOf(err)
	return kind.Retryable() && !slices.Contains(p.opts.FailFast, kind)
}

// NoWaitTimer is a backoff.Timer that fires immediately and records every
// requested delay. Useful for tests and dry runs.
type NoWaitTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

// Start implements backoff.Timer.
func (t *NoWaitTimer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delays = append(t.delays, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

// Stop implements backoff.Timer.
func (t *NoWaitTimer) Stop() {}

// C implements backoff.Timer.
func (t *NoWaitTimer) C() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c
}

// Delays returns the delays requested so far.
func (t *NoWaitTimer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.delays...)
}
