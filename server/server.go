// Package server exposes a battle.Controller over HTTP.
//
// Routes:
//
//	GET  /health         liveness probe
//	GET  /backends       both backends and whether credentials are validated
//	POST /validate       probe both credentials
//	POST /runs           submit a run (202, or 400/409/412)
//	POST /runs/cancel    stop the active run at the next round boundary
//	GET  /runs/current   state and progress of the active run
//	GET  /runs/last      result of the last finished run
//	GET  /transcript     text export of the last finished run
package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sprocket78/ai-battle-app/battle"
	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/logging"
	"github.com/sprocket78/ai-battle-app/model"
)

// Options configures a Server.
type Options struct {
	// Listen is the address passed to Run.
	Listen string
	// Logger defaults to a discarding logger.
	Logger *logging.BattleLogger
	// BaseContext bounds every submitted run. Request contexts end with the
	// response, so runs must not inherit them.
	BaseContext context.Context
	// Progress, when also registered as a sink, feeds /runs/current.
	Progress *ProgressTracker
}

// Server is the HTTP shell around a controller.
type Server struct {
	controller *battle.Controller
	opts       Options
	log        *logging.BattleLogger
	app        *fiber.App
}

// New creates a Server and registers its routes.
func New(controller *battle.Controller, optFns ...func(o *Options)) *Server {
	opts := Options{
		Listen:      "127.0.0.1:8080",
		BaseContext: context.Background(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Progress == nil {
		opts.Progress = NewProgressTracker()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		controller: controller,
		opts:       opts,
		log:        opts.Logger.WithComponent("server"),
		app:        app,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	app.Get("/backends", s.handleBackends)
	app.Post("/validate", s.handleValidate)
	app.Post("/runs", s.handleSubmit)
	app.Post("/runs/cancel", s.handleCancel)
	app.Get("/runs/current", s.handleCurrent)
	app.Get("/runs/last", s.handleLast)
	app.Get("/transcript", s.handleTranscript)

	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App { return s.app }

// Run listens on the configured address until Shutdown.
func (s *Server) Run() error {
	a, b := s.controller.Backends()
	s.log.Info("starting server", "listen", s.opts.Listen, "backend_a", a.Name, "backend_b", b.Name)
	return s.app.Listen(s.opts.Listen)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string         `json:"error"`
	Kind  core.ErrorKind `json:"kind,omitempty"`
}

// SubmitRequest is the body of POST /runs.
type SubmitRequest struct {
	Prompt     string `json:"prompt"`
	BattleMode bool   `json:"battle_mode"`
	Rounds     int    `json:"rounds"`
	ModelA     string `json:"model_a"`
	ModelB     string `json:"model_b"`
	AutoExport bool   `json:"auto_export"`
}

// RunStatus describes the controller and, if any, its active run.
type RunStatus struct {
	State     string          `json:"state"`
	Active    bool            `json:"active"`
	RunID     string          `json:"run_id,omitempty"`
	Config    *core.RunConfig `json:"config,omitempty"`
	Progress  float64         `json:"progress"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
}

type backendsResponse struct {
	A         model.Info `json:"a"`
	B         model.Info `json:"b"`
	Validated bool       `json:"validated"`
}

func (s *Server) handleBackends(c *fiber.Ctx) error {
	a, b := s.controller.Backends()
	return c.JSON(backendsResponse{A: a, B: b, Validated: s.controller.Validated()})
}

func (s *Server) handleValidate(c *fiber.Ctx) error {
	if err := s.controller.Validate(s.opts.BaseContext); err != nil {
		s.log.Warn("credential validation failed", "error", err)
		status := fiber.StatusUnauthorized
		if core.KindOf(err) == core.KindRunAlreadyActive {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(errorBody(err))
	}
	return c.JSON(map[string]bool{"validated": true})
}

func (s *Server) handleSubmit(c *fiber.Ctx) error {
	var req SubmitRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.log.Debug("failed to parse request", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	run, err := s.controller.Submit(s.opts.BaseContext, core.RunConfig{
		Prompt:     req.Prompt,
		BattleMode: req.BattleMode,
		Rounds:     req.Rounds,
		ModelA:     req.ModelA,
		ModelB:     req.ModelB,
		AutoExport: req.AutoExport,
	})
	if err != nil {
		return c.Status(statusFor(err)).JSON(errorBody(err))
	}
	s.opts.Progress.Forget(run.ID())

	cfg := run.Config()
	return c.Status(fiber.StatusAccepted).JSON(RunStatus{
		State:  battle.StateInitialExchange.String(),
		Active: true,
		RunID:  run.ID(),
		Config: &cfg,
	})
}

func (s *Server) handleCancel(c *fiber.Ctx) error {
	if !s.controller.RequestCancel() {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no active run"})
	}
	return c.Status(fiber.StatusAccepted).JSON(map[string]bool{"cancel_requested": true})
}

func (s *Server) handleCurrent(c *fiber.Ctx) error {
	status := RunStatus{State: s.controller.State().String()}
	if run, ok := s.controller.Active(); ok {
		cfg := run.Config()
		started := run.StartedAt()
		status.Active = true
		status.RunID = run.ID()
		status.Config = &cfg
		status.StartedAt = &started
		status.Progress = s.opts.Progress.Percent(run.ID())
	}
	return c.JSON(status)
}

func (s *Server) handleLast(c *fiber.Ctx) error {
	res, ok := s.controller.Last()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no finished run"})
	}
	return c.JSON(res)
}

func (s *Server) handleTranscript(c *fiber.Ctx) error {
	res, ok := s.controller.Last()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no finished run"})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(res.Export())
}

// statusFor maps a submission error to an HTTP status.
func statusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindEmptyPromptRejected, core.KindInvalidRunConfig:
		return fiber.StatusBadRequest
	case core.KindRunAlreadyActive:
		return fiber.StatusConflict
	case core.KindCredentialInvalid:
		return fiber.StatusPreconditionFailed
	default:
		return fiber.StatusInternalServerError
	}
}

func errorBody(err error) ErrorResponse {
	var e *core.Error
	if errors.As(err, &e) {
		msg := e.Message
		if msg == "" {
			msg = e.Error()
		}
		return ErrorResponse{Error: msg, Kind: e.Kind}
	}
	return ErrorResponse{Error: err.Error()}
}
