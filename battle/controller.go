package battle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/logging"
	"github.com/sprocket78/ai-battle-app/model"
	"github.com/sprocket78/ai-battle-app/retry"
	"github.com/sprocket78/ai-battle-app/transcript"
)

// FollowupPrefix precedes the previous reply in every follow-up prompt.
const FollowupPrefix = "Respond to this: "

// DefaultRoundPause is the wait between two follow-up rounds.
const DefaultRoundPause = 500 * time.Millisecond

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Policy retries every backend call; defaults to retry.New().
	Policy *retry.Policy
	// Sink receives the run's events; called from the worker goroutine.
	Sink core.Sink
	// Logger records backend calls and run outcomes.
	Logger *logging.BattleLogger
	// RoundPause separates two consecutive follow-up rounds.
	RoundPause time.Duration
	// MaxRounds bounds RunConfig.Rounds.
	MaxRounds int
	// ExportDir receives auto-exported transcripts.
	ExportDir string
	// Now stamps exchanges; defaults to time.Now.
	Now func() time.Time
	// Sleep implements the round pause; defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Controller runs battles between backend A and backend B. Public methods
// are safe for concurrent use.
type Controller struct {
	a, b model.Backend
	opts Options
	log  *logging.BattleLogger

	mu        sync.Mutex
	state     State
	validated bool
	active    *Run
	last      *Result
}

// New constructs a Controller with optional overrides.
func New(a, b model.Backend, optFns ...func(o *Options)) *Controller {
	opts := Options{
		Sink:       core.NopSink{},
		RoundPause: DefaultRoundPause,
		MaxRounds:  core.DefaultMaxRounds,
		ExportDir:  ".",
		Now:        time.Now,
		Sleep:      sleep,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Sink == nil {
		opts.Sink = core.NopSink{}
	}
	if opts.Policy == nil {
		opts.Policy = retry.New(func(o *retry.Options) { o.Logger = opts.Logger.WithComponent("retry") })
	}

	return &Controller{
		a:    a,
		b:    b,
		opts: opts,
		log:  opts.Logger.WithComponent("controller"),
	}
}

// Backends returns the information of backend A and backend B.
func (c *Controller) Backends() (model.Info, model.Info) {
	return c.a.Info(), c.b.Info()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Validated reports whether both credentials passed validation.
func (c *Controller) Validated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validated
}

// Active returns the in-flight run, if any.
func (c *Controller) Active() (*Run, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.active != nil
}

// Last returns the result of the most recently finished run.
func (c *Controller) Last() (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.last != nil
}

// Validate probes both backends (A then B) with a minimal request through
// the retry policy. Any failure is returned as a CredentialInvalid error
// wrapping the backend's error; runs are rejected until Validate succeeds.
func (c *Controller) Validate(ctx context.Context) error {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return core.NewError(core.KindRunAlreadyActive, "", "cannot validate while a run is active", nil)
	}
	c.state = StateValidating
	c.validated = false
	c.mu.Unlock()

	err := c.validate(ctx)

	c.mu.Lock()
	c.state = StateIdle
	c.validated = err == nil
	c.mu.Unlock()
	return err
}

func (c *Controller) validate(ctx context.Context) error {
	for _, backend := range []model.Backend{c.a, c.b} {
		info := backend.Info()
		start := time.Now()
		err := c.opts.Policy.Do(ctx, func(ctx context.Context) error {
			_, err := backend.Send(ctx, model.Request{Prompt: model.ValidatePrompt, Validate: true})
			return err
		})
		c.log.LogBackendCall(info.Name, info.DefaultModel, len(model.ValidatePrompt), time.Since(start), err)
		if err != nil {
			return core.NewError(core.KindCredentialInvalid, info.Name,
				fmt.Sprintf("credential validation failed: %s", core.Describe(err)), err)
		}
	}
	c.log.Info("credentials validated")
	return nil
}

// Submit starts a run for cfg on a new worker goroutine. ctx bounds the
// whole run; cancelling it aborts in-flight calls, unlike RequestCancel.
// A submission while another run is active fails with RunAlreadyActive.
func (c *Controller) Submit(ctx context.Context, cfg core.RunConfig) (*Run, error) {
	cfg, err := cfg.Normalize(c.opts.MaxRounds)
	if err != nil {
		return nil, err
	}
	if cfg.ModelA, err = c.a.Info().ResolveModel(cfg.ModelA); err != nil {
		return nil, err
	}
	if cfg.ModelB, err = c.b.Info().ResolveModel(cfg.ModelB); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.validated {
		c.mu.Unlock()
		return nil, core.NewError(core.KindCredentialInvalid, "", "credentials have not been validated", nil)
	}
	if c.active != nil {
		c.mu.Unlock()
		return nil, core.NewError(core.KindRunAlreadyActive, "", fmt.Sprintf("run %s is still active", c.active.id), nil)
	}
	run := newRun(cfg, c.opts.Now())
	c.active = run
	c.state = StateInitialExchange
	c.mu.Unlock()

	c.log.WithRun(run.id).Info("run submitted",
		"battle_mode", cfg.BattleMode,
		"rounds", cfg.FollowupRounds(),
		"model_a", cfg.ModelA,
		"model_b", cfg.ModelB,
		"prompt_len", len(cfg.Prompt),
	)

	go c.execute(ctx, run)

	return run, nil
}

// RequestCancel asks the active run to stop at the next round boundary. It
// is idempotent and reports whether a run was active.
func (c *Controller) RequestCancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	run := c.active
	if run == nil {
		return false
	}
	if !run.state.Cancelled() {
		c.log.WithRun(run.id).Info("cancellation requested")
	}
	run.state.Cancel()
	if run.cfg.BattleMode && c.state != StateCompleted {
		c.state = StateCancelling
	}
	return true
}

// enter moves the active run to s; a pending stop keeps it in Cancelling.
func (c *Controller) enter(run *Run, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != run {
		return
	}
	if s != StateCompleted && run.cfg.BattleMode && run.state.Cancelled() {
		c.state = StateCancelling
		return
	}
	c.state = s
}

func (c *Controller) emit(ev core.Event) {
	c.opts.Sink.Notify(ev)
}

func (c *Controller) execute(ctx context.Context, run *Run) {
	log := c.log.WithRun(run.id)
	t := transcript.New(run.cfg.Prompt)

	outcome, runErr := c.play(ctx, run, t, log)

	c.enter(run, StateCompleted)
	c.emit(core.NewProgressEvent(run.id, 100))

	finished := c.opts.Now()
	var exportPath string
	if run.cfg.AutoExport {
		path, err := t.AutoExport(c.opts.ExportDir, finished)
		if err != nil {
			log.Error("auto-export failed", "error", err)
		} else {
			exportPath = path
			log.Info("transcript exported", "path", path)
		}
	}

	res := &Result{
		RunID:      run.id,
		Config:     run.cfg,
		Outcome:    outcome,
		Transcript: t.Exchanges(),
		ExportPath: exportPath,
		Err:        runErr,
		StartedAt:  run.started,
		FinishedAt: finished,
	}
	log.LogRun(string(outcome), len(res.Transcript), finished.Sub(run.started), runErr)

	// Back to idle before RunCompleted so a sink may submit the next run.
	c.mu.Lock()
	c.active = nil
	c.last = res
	c.state = StateIdle
	c.mu.Unlock()

	c.emit(core.NewRunCompletedEvent(run.id, outcome, res.Transcript, exportPath))
	run.finish(res)
}

// play drives the exchange sequence and reports how the run ended.
func (c *Controller) play(ctx context.Context, run *Run, t *transcript.Transcript, log *logging.BattleLogger) (core.Outcome, error) {
	cfg := run.cfg

	replyA, err := c.exchange(ctx, run, t, log, core.SideA, cfg.Prompt, 0)
	if err != nil {
		return c.degrade(run, err)
	}
	c.emit(core.NewProgressEvent(run.id, 25))

	replyB, err := c.exchange(ctx, run, t, log, core.SideB, replyA, 0)
	if err != nil {
		return c.degrade(run, err)
	}
	c.emit(core.NewProgressEvent(run.id, 50))

	n := cfg.FollowupRounds()
	for i := 1; i <= n; i++ {
		if run.state.Cancelled() {
			ts := c.opts.Now()
			t.Append(core.NewStopExchange(i, ts))
			c.emit(core.NewStoppedEvent(run.id, core.SideA, i, ts))
			c.emit(core.NewStoppedEvent(run.id, core.SideB, i, ts))
			log.Info("run stopped", "before_round", i)
			return core.OutcomeStopped, nil
		}

		c.enter(run, StateFollowupRound)
		c.emit(core.NewProgressEvent(run.id, Progress(i, n)))

		replyA, err = c.exchange(ctx, run, t, log, core.SideA, FollowupPrefix+replyB, i)
		if err != nil {
			return c.degrade(run, err)
		}
		replyB, err = c.exchange(ctx, run, t, log, core.SideB, FollowupPrefix+replyA, i)
		if err != nil {
			return c.degrade(run, err)
		}

		if i < n {
			if err := c.opts.Sleep(ctx, c.opts.RoundPause); err != nil {
				log.Debug("round pause interrupted", "error", err)
			}
		}
	}
	return core.OutcomeSucceeded, nil
}

// exchange performs one backend call through the retry policy and records it.
func (c *Controller) exchange(
	ctx context.Context,
	run *Run,
	t *transcript.Transcript,
	log *logging.BattleLogger,
	side core.Side,
	prompt string,
	round int,
) (string, error) {
	backend, mdl := c.a, run.cfg.ModelA
	if side == core.SideB {
		backend, mdl = c.b, run.cfg.ModelB
	}
	info := backend.Info()

	ex := core.NewExchange(side, info.Name, mdl, prompt, round, c.opts.Now())
	start := time.Now()

	var reply string
	err := c.opts.Policy.Do(ctx, func(ctx context.Context) error {
		var err error
		reply, err = backend.Send(ctx, model.Request{Prompt: prompt, Model: mdl})
		return err
	})
	log.LogBackendCall(info.Name, mdl, len(prompt), time.Since(start), err)

	ex = ex.Complete(reply, err)
	t.Append(ex)
	if err != nil {
		return "", err
	}
	c.emit(core.NewResponseEvent(run.id, ex))
	return reply, nil
}

// degrade reports a run-ending backend failure to both sides.
func (c *Controller) degrade(run *Run, err error) (core.Outcome, error) {
	c.emit(core.NewErrorEvent(run.id, core.SideA, err))
	c.emit(core.NewErrorEvent(run.id, core.SideB, err))
	return core.OutcomeDegraded, err
}

// Progress is the percentage reported at the start of follow-up round i of n.
func Progress(i, n int) float64 {
	return (0.5 + float64(i)/float64(n+1)*0.5) * 100
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
