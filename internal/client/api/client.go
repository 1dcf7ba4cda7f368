// Package api is the client for the backend REST API.
//
// Reads and natural-key writes are retried with the mobile policy. Anything
// that publishes user-visible content goes through PostNoRetry so a lost
// response never turns into a duplicate post.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/relay/internal/infra/credential"
	"github.com/vietddude/relay/internal/infra/rpc"
	"github.com/vietddude/relay/internal/infra/rpc/provider"
	"github.com/vietddude/relay/internal/infra/rpc/retry"
)

// Client calls the backend API on behalf of the signed-in user.
type Client struct {
	executor   *retry.Executor
	policy     retry.Policy
	classifier retry.Classifier
	timeout    time.Duration
	invalidate Invalidator
}

// Invalidator drops a cached credential, such as redis.TokenCache.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Option configures a Client.
type Option func(*Client)

// WithPolicy overrides the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithInvalidator clears cached credentials whenever the API answers 401,
// so the next call resolves a fresh token.
func WithInvalidator(inv Invalidator) Option {
	return func(c *Client) {
		c.invalidate = inv
	}
}

// New creates a client over an executor that already has credentials wired in.
func New(executor *retry.Executor, opts ...Option) *Client {
	c := &Client{
		executor:   executor,
		policy:     retry.MobilePolicy(),
		classifier: retry.DefaultClassifier,
		timeout:    retry.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTP builds the HTTP transport and executor for baseURL.
func NewHTTP(baseURL string, store credential.Store, logger *slog.Logger, opts ...Option) *Client {
	transport := provider.NewHTTPTransport(baseURL)
	executor := retry.NewExecutor(transport,
		retry.WithCredentials(store),
		retry.WithLogger(logger),
	)
	return New(executor, opts...)
}

// Get fetches path and decodes the response into out. out may be nil.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, rpc.NewGet(path, true), out)
}

// Put replaces the resource at path.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, rpc.NewPut(path, body, true), out)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, rpc.NewDelete(path, true), out)
}

// Post sends a POST the server deduplicates, such as a like or a follow.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, rpc.NewPost(path, body, true), out)
}

// PostNoRetry sends a POST exactly once.
func (c *Client) PostNoRetry(ctx context.Context, path string, body, out any) error {
	spec := rpc.NewAction(path, body, true)
	spec.Timeout = c.timeout

	payload, err := c.executor.ExecuteOnce(ctx, spec)
	if err != nil {
		c.checkUnauthorized(ctx, err)
		return err
	}
	return decode(path, payload, out)
}

// Post is a published piece of content.
type Post struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// PublishPost publishes content as a new post.
func (c *Client) PublishPost(ctx context.Context, content string) (*Post, error) {
	var post Post
	req := map[string]string{"content": content}
	if err := c.PostNoRetry(ctx, "/posts", req, &post); err != nil {
		return nil, fmt.Errorf("publish post: %w", err)
	}
	return &post, nil
}

func (c *Client) do(ctx context.Context, spec provider.RequestSpec, out any) error {
	spec.Timeout = c.timeout

	payload, err := c.executor.Execute(ctx, spec, c.policy, c.classifier)
	if err != nil {
		c.checkUnauthorized(ctx, err)
		return err
	}
	return decode(spec.Target, payload, out)
}

func (c *Client) checkUnauthorized(ctx context.Context, err error) {
	if c.invalidate == nil {
		return
	}
	var statusErr *provider.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnauthorized {
		return
	}
	if invErr := c.invalidate.Invalidate(context.WithoutCancel(ctx)); invErr != nil {
		slog.Warn("Failed to invalidate cached credential", "error", invErr)
	}
}

func decode(target string, payload provider.Payload, out any) error {
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &provider.DecodeError{Target: target, Err: err}
	}
	return nil
}

// UserMessage turns an error from this client into text fit for the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, retry.ErrCancelled) {
		return "Request cancelled."
	}
	if errors.Is(err, credential.ErrNoCredential) {
		return "You are signed out. Sign in and retry."
	}

	var failed *retry.FailedError
	if errors.As(err, &failed) && failed.Transient() {
		return "The service is busy right now. Please try again in a moment."
	}

	var decodeErr *provider.DecodeError
	if errors.As(err, &decodeErr) {
		return "Received an unexpected response. Please update the app and retry."
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
		return "The request was rejected. Check your input and retry."
	}
	return "Something went wrong. Please fix the problem and retry."
}
