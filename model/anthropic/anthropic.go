// Package anthropic provides a model.Backend for the Anthropic Claude
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/model"
)

// DefaultModels is the model set offered when none is configured.
var DefaultModels = []string{
	string(anthropic.ModelClaude3_5Sonnet20241022),
	"claude-3-5-haiku-20241022",
}

// Options configures the Anthropic backend. Extend via functional options to
// preserve stability.
type Options struct {
	Name   string
	APIKey string
	// BaseURL overrides the SDK default endpoint; empty keeps it.
	BaseURL      string
	Models       []string
	DefaultModel string
	// MaxTokens is required by the Messages API for every call.
	MaxTokens  int64
	HTTPClient *http.Client
}

// Backend wraps the Anthropic Messages API behind the generic model.Backend interface.
type Backend struct {
	client *anthropic.Client
	opts   Options
}

// New creates a backend using the official client with SDK retries disabled.
func New(optFns ...func(o *Options)) (*Backend, error) {
	opts := Options{
		Name:      "Claude",
		Models:    DefaultModels,
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, core.NewError(core.KindCredentialInvalid, opts.Name, "credential must not be empty", nil)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")+"/"))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	client := anthropic.NewClient(clientOpts...)

	return NewFromClient(&client, opts), nil
}

// NewFromClient creates a backend from an existing client.
func NewFromClient(client *anthropic.Client, opts Options) *Backend {
	if opts.DefaultModel == "" && len(opts.Models) > 0 {
		opts.DefaultModel = opts.Models[0]
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	return &Backend{client: client, opts: opts}
}

// Send implements model.Backend.
func (b *Backend) Send(ctx context.Context, req model.Request) (string, error) {
	mdl, err := model.CheckRequest(b.Info(), req)
	if err != nil {
		return "", err
	}

	maxTokens := b.opts.MaxTokens
	if req.Validate {
		maxTokens = model.ValidateMaxTokens
	}

	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(mdl),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", model.StatusError(b.opts.Name, apiErr.StatusCode, err)
		}
		return "", model.ClassifyTransport(b.opts.Name, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if sb.Len() == 0 && !req.Validate {
		return "", model.Malformed(b.opts.Name, "response carries no text content")
	}
	return sb.String(), nil
}

// Info returns metadata describing this backend.
func (b *Backend) Info() model.Info {
	return model.Info{
		Name:         b.opts.Name,
		Provider:     "anthropic",
		Models:       b.opts.Models,
		DefaultModel: b.opts.DefaultModel,
	}
}
