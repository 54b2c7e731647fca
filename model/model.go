package model

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sprocket78/ai-battle-app/core"
)

// ValidateMaxTokens caps the output of credential probes.
const ValidateMaxTokens = 50

// ValidatePrompt is the text sent by credential probes.
const ValidatePrompt = "Test"

// Request is the normalized input of one backend call.
type Request struct {
	Prompt string `json:"prompt"`
	// Model must be one of Info().Models; empty selects Info().DefaultModel.
	Model string `json:"model,omitempty"`
	// Validate sends a minimal-cost probe; the reply is discarded by callers.
	Validate bool `json:"validate,omitempty"`
}

// Info contains metadata about a backend.
type Info struct {
	Name         string   `json:"name"`     // display name, e.g. "Grok"
	Provider     string   `json:"provider"` // "openai", "anthropic", "mock"
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
}

// ResolveModel returns the model to use for requested, or an
// InvalidRunConfig error when it is not in the enumerated set.
func (i Info) ResolveModel(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		requested = i.DefaultModel
		if requested == "" && len(i.Models) > 0 {
			requested = i.Models[0]
		}
	}
	if len(i.Models) > 0 && !slices.Contains(i.Models, requested) {
		return "", core.NewError(core.KindInvalidRunConfig, i.Name,
			fmt.Sprintf("model %q is not one of %s", requested, strings.Join(i.Models, ", ")), nil)
	}
	return requested, nil
}

// Backend is a stateless request/response wrapper around one remote
// chat-completion endpoint. Failures are *core.Error values classified into
// the engine's taxonomy. Implementations must not retry internally; the
// retry policy is applied by the caller.
type Backend interface {
	Send(ctx context.Context, req Request) (string, error)

	// Info returns information about the backend implementation.
	Info() Info
}

// CheckRequest applies the preconditions shared by every backend: a
// non-empty prompt and a model from the enumerated set. It returns the
// resolved model.
func CheckRequest(info Info, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", core.NewError(core.KindEmptyPromptRejected, info.Name, "prompt must not be empty", nil)
	}
	return info.ResolveModel(req.Model)
}

// MockBackend is a lightweight in-memory Backend useful for tests & examples.
// Replies are scripted per call; when the script is exhausted it answers
// "Mock response to: <prompt>".
type MockBackend struct {
	info Info

	mu        sync.Mutex
	script    []MockReply
	responses map[string]string
	calls     []Request
	hook      func(call int, req Request)
}

// MockReply is one scripted outcome.
type MockReply struct {
	Text string
	Err  error
}

// NewMockBackend constructs a MockBackend with the given display name and models.
func NewMockBackend(name string, models ...string) *MockBackend {
	if len(models) == 0 {
		models = []string{"mock-1"}
	}
	return &MockBackend{
		info: Info{
			Name:         name,
			Provider:     "mock",
			Models:       models,
			DefaultModel: models[0],
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockBackend) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Script appends replies consumed in order by subsequent calls.
func (m *MockBackend) Script(replies ...MockReply) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, replies...)
	return m
}

// FailWith appends n scripted failures of the given kind.
func (m *MockBackend) FailWith(kind core.ErrorKind, n int) *MockBackend {
	for i := 0; i < n; i++ {
		m.Script(MockReply{Err: core.NewError(kind, m.info.Name, "scripted failure", nil)})
	}
	return m
}

// OnCall registers a hook invoked with the 1-based call number before the reply is produced.
func (m *MockBackend) OnCall(fn func(call int, req Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

// Send implements Backend.
func (m *MockBackend) Send(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", core.NewError(core.KindTransportError, m.info.Name, "request aborted", err)
	}
	if _, err := CheckRequest(m.info, req); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.calls = append(m.calls, req)
	n := len(m.calls)
	hook := m.hook
	var reply *MockReply
	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		reply = &r
	}
	canned, ok := m.responses[req.Prompt]
	m.mu.Unlock()

	if hook != nil {
		hook(n, req)
	}
	if reply != nil {
		return reply.Text, reply.Err
	}
	if ok {
		return canned, nil
	}
	return "Mock response to: " + req.Prompt, nil
}

// Calls returns a copy of every request received so far.
func (m *MockBackend) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// Info implements Backend.
func (m *MockBackend) Info() Info { return m.info }
