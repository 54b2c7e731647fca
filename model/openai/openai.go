// Package openai provides an implementation of model.Backend on top of the
// OpenAI Chat Completions API. Any endpoint speaking the same protocol (the
// xAI Grok API included) is reached by pointing BaseURL at it; the
// credential is forwarded as a bearer token.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/model"
)

// Well-known OpenAI-compatible endpoints.
const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	XAIBaseURL    = "https://api.x.ai/v1"
)

// Default model sets offered by the two well-known endpoints.
var (
	OpenAIModels = []string{"gpt-4", "gpt-3.5-turbo"}
	XAIModels    = []string{"grok-beta", "grok-3-mini-beta"}
)

// Options configure the backend. Extend via functional options without
// breaking callers.
type Options struct {
	Name         string
	APIKey       string
	BaseURL      string
	Models       []string
	DefaultModel string
	// MaxTokens caps regular completions; 0 leaves max_tokens unset.
	MaxTokens  int64
	HTTPClient *http.Client
}

// Backend wraps the Chat Completions API behind the generic model.Backend interface.
type Backend struct {
	client *openai.Client
	opts   Options
}

// New creates a backend using the official client. The SDK's own retries
// are disabled; the caller's retry policy is the only retry layer.
func New(optFns ...func(o *Options)) (*Backend, error) {
	opts := Options{
		Name:    "ChatGPT",
		BaseURL: OpenAIBaseURL,
		Models:  OpenAIModels,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, core.NewError(core.KindCredentialInvalid, opts.Name, "credential must not be empty", nil)
	}
	if opts.DefaultModel == "" && len(opts.Models) > 0 {
		opts.DefaultModel = opts.Models[0]
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(strings.TrimRight(opts.BaseURL, "/") + "/"),
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	client := openai.NewClient(clientOpts...)

	return NewFromClient(&client, opts), nil
}

// NewFromClient creates a backend from an existing client.
func NewFromClient(client *openai.Client, opts Options) *Backend {
	if opts.DefaultModel == "" && len(opts.Models) > 0 {
		opts.DefaultModel = opts.Models[0]
	}
	return &Backend{client: client, opts: opts}
}

// Send implements model.Backend.
func (b *Backend) Send(ctx context.Context, req model.Request) (string, error) {
	mdl, err := model.CheckRequest(b.Info(), req)
	if err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model:    mdl,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(req.Prompt)},
	}
	switch {
	case req.Validate:
		params.MaxTokens = openai.Int(model.ValidateMaxTokens)
	case b.opts.MaxTokens > 0:
		params.MaxTokens = openai.Int(b.opts.MaxTokens)
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", b.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", model.Malformed(b.opts.Name, "response has no choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" && !req.Validate {
		return "", model.Malformed(b.opts.Name, "first choice carries no message content")
	}
	return content, nil
}

func (b *Backend) classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return model.StatusError(b.opts.Name, apiErr.StatusCode, err)
	}
	return model.ClassifyTransport(b.opts.Name, err)
}

// Info returns metadata describing this backend.
func (b *Backend) Info() model.Info {
	return model.Info{
		Name:         b.opts.Name,
		Provider:     "openai",
		Models:       b.opts.Models,
		DefaultModel: b.opts.DefaultModel,
	}
}
