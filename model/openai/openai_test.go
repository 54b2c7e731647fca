package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/model"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "grok-beta",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "4"}}]
}`

func newTestBackend(t *testing.T, handler http.HandlerFunc) (*Backend, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	b, err := New(func(o *Options) {
		o.Name = "Grok"
		o.APIKey = "xai-secret"
		o.BaseURL = srv.URL
		o.Models = XAIModels
	})
	require.NoError(t, err)
	return b, srv
}

func TestNew_RequiresCredential(t *testing.T) {
	_, err := New(func(o *Options) { o.APIKey = " " })
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrCredentialInvalid))
}

func TestSend_Success(t *testing.T) {
	var body map[string]any
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer xai-secret", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	})

	got, err := b.Send(context.Background(), model.Request{Prompt: "What is 2+2?", Model: "grok-beta"})
	require.NoError(t, err)
	assert.Equal(t, "4", got)

	assert.Equal(t, "grok-beta", body["model"])
	_, hasMax := body["max_tokens"]
	assert.False(t, hasMax, "max_tokens must be omitted for regular calls")
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "What is 2+2?", first["content"])
}

func TestSend_ValidateProbeCapsTokens(t *testing.T) {
	var body map[string]any
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	})

	_, err := b.Send(context.Background(), model.Request{Prompt: model.ValidatePrompt, Validate: true})
	require.NoError(t, err)
	assert.Equal(t, float64(model.ValidateMaxTokens), body["max_tokens"])
	assert.Equal(t, "grok-beta", body["model"], "default model is used for probes")
}

func TestSend_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   core.ErrorKind
	}{
		{http.StatusUnauthorized, core.KindUnauthorized},
		{http.StatusTooManyRequests, core.KindRateLimited},
		{http.StatusInternalServerError, core.KindServerError},
		{http.StatusServiceUnavailable, core.KindServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"test"}}`)
			})
			_, err := b.Send(context.Background(), model.Request{Prompt: "hi"})
			require.Error(t, err)
			assert.Equal(t, tt.want, core.KindOf(err))

			var ce *core.Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.status, ce.StatusCode)
			assert.Equal(t, "Grok", ce.Backend)
		})
	}
}

func TestSend_MalformedResponse(t *testing.T) {
	for name, payload := range map[string]string{
		"no choices":    `{"id":"x","object":"chat.completion","choices":[]}`,
		"empty content": `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, payload)
			})
			_, err := b.Send(context.Background(), model.Request{Prompt: "hi"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrMalformedResponse))
		})
	}
}

func TestSend_TransportError(t *testing.T) {
	b, srv := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := b.Send(context.Background(), model.Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, core.KindTransportError, core.KindOf(err))
}

func TestSend_LocalValidation(t *testing.T) {
	calls := 0
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, err := b.Send(context.Background(), model.Request{Prompt: "  "})
	assert.True(t, errors.Is(err, core.ErrEmptyPromptRejected))

	_, err = b.Send(context.Background(), model.Request{Prompt: "hi", Model: "gpt-4"})
	assert.True(t, errors.Is(err, core.ErrInvalidRunConfig))

	assert.Zero(t, calls, "local validation must not reach the network")
}

func TestInfo(t *testing.T) {
	b, err := New(func(o *Options) { o.APIKey = "k" })
	require.NoError(t, err)
	info := b.Info()
	assert.Equal(t, "ChatGPT", info.Name)
	assert.Equal(t, "openai", info.Provider)
	assert.Equal(t, "gpt-4", info.DefaultModel)
}
