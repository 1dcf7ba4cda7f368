package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/relay/internal/infra/credential"
	"github.com/vietddude/relay/internal/infra/rpc/provider"
	"github.com/vietddude/relay/internal/infra/rpc/retry"
)

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	executor := retry.NewExecutor(provider.NewHTTPTransport(server.URL),
		retry.WithCredentials(credential.StaticStore("session")),
		retry.WithSleeper(retry.SleeperFunc(noSleep)),
	)
	return New(executor, WithTimeout(time.Second))
}

func TestClient_GetRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer session", r.Header.Get("Authorization"))
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"id":"u1"}`)
	})

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, client.Get(context.Background(), "/me", &out))
	assert.Equal(t, "u1", out.ID)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_GetDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.Get(context.Background(), "/posts/missing", nil)

	var failed *retry.FailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 1, failed.Attempts)
	assert.False(t, failed.Transient())
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "The request was rejected. Check your input and retry.", UserMessage(err))
}

func TestClient_PublishPostIsNeverRetried(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.PublishPost(context.Background(), "hello")

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())

	var failed *retry.FailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, retry.Terminal, failed.Classification)
}

func TestClient_PublishPostDecodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"p1","content":"hello"}`)
	})

	post, err := client.PublishPost(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, "hello", post.Content)
}

func TestClient_DecodeError(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `not json`)
	})

	var out map[string]any
	err := client.Get(context.Background(), "/feed", &out)

	var decodeErr *provider.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "/feed", decodeErr.Target)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_SignedOut(t *testing.T) {
	executor := retry.NewExecutor(provider.NewHTTPTransport("http://unused.invalid"),
		retry.WithCredentials(credential.StaticStore("")),
	)
	client := New(executor)

	err := client.Delete(context.Background(), "/posts/1", nil)
	assert.ErrorIs(t, err, retry.ErrConfiguration)
	assert.Equal(t, "You are signed out. Sign in and retry.", UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "Request cancelled.",
		UserMessage(fmt.Errorf("%w: %w", retry.ErrCancelled, context.Canceled)))
	assert.Equal(t, "The service is busy right now. Please try again in a moment.",
		UserMessage(&retry.FailedError{Target: "x", Attempts: 3, Classification: retry.Retryable, Exhausted: true}))
	assert.Equal(t, "Something went wrong. Please fix the problem and retry.",
		UserMessage(errors.New("boom")))
}

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestClient_UnauthorizedInvalidatesCachedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/me" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	inv := &countingInvalidator{}
	executor := retry.NewExecutor(provider.NewHTTPTransport(server.URL),
		retry.WithCredentials(credential.StaticStore("stale")),
		retry.WithSleeper(retry.SleeperFunc(noSleep)),
	)
	client := New(executor, WithInvalidator(inv))

	require.Error(t, client.Get(context.Background(), "/me", nil))
	assert.Equal(t, int32(1), inv.calls.Load())

	require.Error(t, client.PostNoRetry(context.Background(), "/me", nil, nil))
	assert.Equal(t, int32(2), inv.calls.Load())

	require.Error(t, client.Get(context.Background(), "/forbidden", nil))
	assert.Equal(t, int32(2), inv.calls.Load())
}
