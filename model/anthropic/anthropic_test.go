package anthropic

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

const messageBody = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-sonnet-20241022",
  "content": [{"type": "text", "text": "Four"}, {"type": "text", "text": "."}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 3, "output_tokens": 2}
}`

func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	b, err := New(func(o *Options) {
		o.APIKey = "sk-ant-test"
		o.BaseURL = srv.URL
	})
	require.NoError(t, err)
	return b
}

func TestNew_RequiresCredential(t *testing.T) {
	_, err := New()
	assert.True(t, errors.Is(err, core.ErrCredentialInvalid))
}

func TestSend_Success(t *testing.T) {
	var body map[string]any
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, messageBody)
	})

	got, err := b.Send(context.Background(), model.Request{Prompt: "What is 2+2?"})
	require.NoError(t, err)
	assert.Equal(t, "Four.", got)
	assert.Equal(t, "claude-3-5-sonnet-20241022", body["model"])
	assert.Equal(t, float64(1024), body["max_tokens"])
}

func TestSend_ValidateProbe(t *testing.T) {
	var body map[string]any
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, messageBody)
	})

	_, err := b.Send(context.Background(), model.Request{Prompt: model.ValidatePrompt, Validate: true})
	require.NoError(t, err)
	assert.Equal(t, float64(model.ValidateMaxTokens), body["max_tokens"])
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   core.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`, core.KindUnauthorized},
		{"rate limited", http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow"}}`, core.KindRateLimited},
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`, core.KindServerError},
		{"no text", http.StatusOK, `{"id":"msg_2","type":"message","role":"assistant","content":[],"usage":{"input_tokens":1,"output_tokens":0}}`, core.KindMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := b.Send(context.Background(), model.Request{Prompt: "hi"})
			require.Error(t, err)
			assert.Equal(t, tt.want, core.KindOf(err))
		})
	}
}

func TestInfo(t *testing.T) {
	b, err := New(func(o *Options) {
		o.APIKey = "k"
		o.Models = []string{"claude-3-5-haiku-20241022"}
	})
	require.NoError(t, err)
	info := b.Info()
	assert.Equal(t, "Claude", info.Name)
	assert.Equal(t, "anthropic", info.Provider)
	assert.Equal(t, "claude-3-5-haiku-20241022", info.DefaultModel)
}
