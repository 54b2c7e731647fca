// Package aibattle provides a high-level façade that wires the configured
// backends, retry policy, presentation sinks and logging into a
// battle.Controller. Most applications interact with this package by:
//  1. Loading a config.Config (config.NewViper + config.Load)
//  2. Creating an App via New(), optionally overriding credentials and sinks
//  3. Validating credentials once, then submitting runs through Controller()
//
// Events reach the sinks through a sink.Queue, so a slow presentation layer
// never stalls a run. Call Close to flush pending events on shutdown.
package aibattle

import (
	"fmt"
	"net/http"
	"os"

	"github.com/sprocket78/ai-battle-app/battle"
	"github.com/sprocket78/ai-battle-app/config"
	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/logging"
	"github.com/sprocket78/ai-battle-app/model"
	"github.com/sprocket78/ai-battle-app/model/anthropic"
	"github.com/sprocket78/ai-battle-app/model/openai"
	"github.com/sprocket78/ai-battle-app/retry"
	"github.com/sprocket78/ai-battle-app/sink"
)

// Options configures the App instance.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// Logger defaults to a slog logger on stderr built from Config.Logging.
	Logger *logging.BattleLogger
	// Sinks receive every event, in order, off the worker goroutine.
	Sinks []core.Sink
	// Keys overrides the configured credential per side (e.g. entered
	// interactively). Empty entries fall back to the configuration.
	Keys map[core.Side]string
	// HTTPClient is shared by both backends; nil uses the SDK default.
	HTTPClient *http.Client
}

// App is the assembled application.
type App struct {
	cfg        *config.Config
	logger     *logging.BattleLogger
	queue      *sink.Queue
	controller *battle.Controller
}

// New builds backends, retry policy and controller from the configuration.
// A missing credential is reported as a CredentialInvalid error.
func New(optFns ...func(o *Options)) (*App, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	cfg := opts.Config
	if opts.Logger == nil {
		opts.Logger = logging.NewSlogLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	}

	a, err := NewBackend(cfg.Backends.A, key(opts.Keys, core.SideA, cfg.Backends.A), opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("backend a: %w", err)
	}
	b, err := NewBackend(cfg.Backends.B, key(opts.Keys, core.SideB, cfg.Backends.B), opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("backend b: %w", err)
	}

	queue := sink.NewQueue(sink.Multi(opts.Sinks))
	controller := battle.New(a, b, func(o *battle.Options) {
		o.Policy = NewPolicy(cfg.Retry, opts.Logger.WithComponent("retry"))
		o.Sink = queue
		o.Logger = opts.Logger
		o.RoundPause = cfg.Battle.RoundPause
		o.MaxRounds = cfg.Battle.MaxRounds
		o.ExportDir = cfg.Battle.ExportDir
	})

	return &App{
		cfg:        cfg,
		logger:     opts.Logger,
		queue:      queue,
		controller: controller,
	}, nil
}

func key(keys map[core.Side]string, side core.Side, bc config.BackendConfig) string {
	if k := keys[side]; k != "" {
		return k
	}
	return bc.ResolveAPIKey()
}

// Controller returns the battle controller.
func (a *App) Controller() *battle.Controller { return a.controller }

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *App) Logger() *logging.BattleLogger { return a.logger }

// RunConfig builds a submission for prompt using the configured defaults.
func (a *App) RunConfig(prompt string, battleMode bool) core.RunConfig {
	return core.RunConfig{
		Prompt:     prompt,
		BattleMode: battleMode,
		Rounds:     a.cfg.Battle.Rounds,
		AutoExport: a.cfg.Battle.AutoExport,
	}
}

// Close delivers pending events and stops the event queue. The controller
// must not be used afterwards.
func (a *App) Close() {
	a.queue.Close()
}

// NewBackend creates the client for one configured backend.
func NewBackend(bc config.BackendConfig, apiKey string, httpClient *http.Client) (model.Backend, error) {
	switch bc.Provider {
	case "openai", "":
		backend, err := openai.New(func(o *openai.Options) {
			o.Name = bc.Name
			o.APIKey = apiKey
			o.BaseURL = bc.BaseURL
			o.Models = bc.Models
			o.DefaultModel = bc.DefaultModel
			o.MaxTokens = bc.MaxTokens
			o.HTTPClient = httpClient
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	case "anthropic":
		backend, err := anthropic.New(func(o *anthropic.Options) {
			o.Name = bc.Name
			o.APIKey = apiKey
			o.BaseURL = bc.BaseURL
			if len(bc.Models) > 0 {
				o.Models = bc.Models
			}
			o.DefaultModel = bc.DefaultModel
			if bc.MaxTokens > 0 {
				o.MaxTokens = bc.MaxTokens
			}
			o.HTTPClient = httpClient
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, core.NewError(core.KindInvalidRunConfig, bc.Name, fmt.Sprintf("unknown provider %q", bc.Provider), nil)
	}
}

// NewPolicy translates the retry configuration.
func NewPolicy(rc config.RetryConfig, logger logging.Logger) *retry.Policy {
	return retry.New(func(o *retry.Options) {
		o.MaxAttempts = rc.MaxAttempts
		o.InitialInterval = rc.InitialInterval
		o.MaxInterval = rc.MaxInterval
		o.Multiplier = rc.Multiplier
		o.Jitter = rc.Jitter
		if rc.FailFastUnauthorized {
			o.FailFast = []core.ErrorKind{core.KindUnauthorized}
		}
		if logger != nil {
			o.Logger = logger
		}
	})
}
