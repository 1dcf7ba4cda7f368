// Package rpc is the entry point for making resilient remote calls.
//
// Callers describe a request with a RequestSpec, pick a Transport and run it
// through an Executor:
//
//	transport := rpc.NewHTTPTransport(baseURL, rpc.WithRateLimit(10, 5))
//	executor := rpc.NewExecutor(transport, rpc.WithCredentials(store))
//
//	payload, err := executor.Execute(ctx, rpc.NewGet("/feed", true), rpc.MobilePolicy(), nil)
//
// Side-effecting calls are built with NewAction and go through ExecuteOnce.
//
// # Package Structure
//
//   - provider/ - RequestSpec, transports and transport errors
//   - retry/    - retry policy, classifiers, timeout wrapper, executor
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"github.com/vietddude/relay/internal/infra/rpc/provider"
	"github.com/vietddude/relay/internal/infra/rpc/retry"
)

// =============================================================================
// Re-exported types from provider package
// =============================================================================

// RequestSpec describes one remote operation.
type RequestSpec = provider.RequestSpec

// Payload is the raw successful response body.
type Payload = provider.Payload

// Transport performs a single attempt of a RequestSpec.
type Transport = provider.Transport

// HTTPTransport sends RequestSpecs as JSON over HTTP.
type HTTPTransport = provider.HTTPTransport

// StatusError is a non-2xx HTTP response.
type StatusError = provider.StatusError

// NewHTTPTransport creates an HTTP transport rooted at baseURL.
func NewHTTPTransport(baseURL string, opts ...provider.HTTPOption) *HTTPTransport {
	return provider.NewHTTPTransport(baseURL, opts...)
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) provider.HTTPOption {
	return provider.WithRateLimit(rps, burst)
}

// =============================================================================
// Re-exported types from retry package
// =============================================================================

// Executor runs RequestSpecs with timeouts and retries.
type Executor = retry.Executor

// Policy bounds attempts and backoff.
type Policy = retry.Policy

// Classifier decides whether a failure is worth another attempt.
type Classifier = retry.Classifier

// FailedError is the terminal outcome of an unsuccessful call.
type FailedError = retry.FailedError

// NewExecutor creates an executor over transport.
func NewExecutor(transport Transport, opts ...retry.Option) *Executor {
	return retry.NewExecutor(transport, opts...)
}

// MobilePolicy returns the policy used for backend API calls.
func MobilePolicy() Policy {
	return retry.MobilePolicy()
}

// GeminiPolicy returns the policy used for content generation.
func GeminiPolicy() Policy {
	return retry.GeminiPolicy()
}
