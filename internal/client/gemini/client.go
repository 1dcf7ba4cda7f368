// Package gemini generates text content with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/vietddude/relay/internal/infra/credential"
	"github.com/vietddude/relay/internal/infra/rpc/provider"
	"github.com/vietddude/relay/internal/infra/rpc/retry"
)

// DefaultModel is used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// ErrEmptyPrompt is returned before any request is made.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Config holds client settings.
type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
	Policy   retry.Policy
}

// Client wraps an Executor with the generation policy and classifiers.
type Client struct {
	executor   *retry.Executor
	model      string
	timeout    time.Duration
	policy     retry.Policy
	classifier retry.Classifier
}

// New creates a client over a Gemini transport. The API key is resolved
// through the executor's credential store before the first attempt.
func New(cfg Config, logger *slog.Logger, opts ...retry.Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	transport := provider.NewGeminiTransport(cfg.Endpoint)
	opts = append([]retry.Option{
		retry.WithLogger(logger.With("component", "gemini")),
		retry.WithCredentials(credential.StaticStore(strings.TrimSpace(cfg.APIKey))),
	}, opts...)
	return NewWithExecutor(retry.NewExecutor(transport, opts...), cfg)
}

// NewWithExecutor creates a client over an existing executor.
func NewWithExecutor(executor *retry.Executor, cfg Config) *Client {
	c := &Client{
		executor: executor,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		policy:   cfg.Policy,
		classifier: retry.Any(
			retry.DefaultClassifier,
			retry.GRPCClassifier,
			retry.ProviderStatusClassifier,
		),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout == 0 {
		c.timeout = retry.DefaultTimeout
	}
	if c.policy == (retry.Policy{}) {
		c.policy = retry.GeminiPolicy()
	}
	return c
}

// Generate returns the model's text for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	spec := provider.RequestSpec{
		Target:       c.model,
		Method:       "POST",
		Body:         prompt,
		RequiresAuth: true,
		Timeout:      c.timeout,
		Idempotent:   true,
	}

	payload, err := c.executor.Execute(ctx, spec, c.policy, c.classifier)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.String()), nil
}
