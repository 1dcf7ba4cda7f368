// Package provider implements the transports the executor drives.
//
// This package contains:
//   - RequestSpec: immutable description of one logical remote call
//   - Transport interface: performs a single attempt of a RequestSpec
//   - HTTPTransport: JSON over HTTP with bearer authentication
//   - GeminiTransport: generative-AI completion endpoint
//   - FuncTransport: adapter for arbitrary callables
//   - StatusError, DecodeError, ProviderError: structured transport failures
package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidTarget is returned when a RequestSpec has no usable target.
var ErrInvalidTarget = errors.New("invalid request target")

// Payload is the raw body returned by a successful attempt.
type Payload []byte

// String returns the payload as text.
func (p Payload) String() string {
	return string(p)
}

// RequestSpec describes one logical remote call.
// It is built once per call site invocation and never mutated.
type RequestSpec struct {
	// Target identifies the call (URL path for HTTP, operation name otherwise).
	Target string

	// Method is the HTTP verb (GET, POST, PUT, DELETE) or an operation verb.
	Method string

	// Body is any JSON-serialisable value. nil sends no body.
	Body any

	// RequiresAuth makes the executor resolve a bearer token before the first attempt.
	RequiresAuth bool

	// Timeout bounds each attempt. Zero uses the executor default.
	Timeout time.Duration

	// Idempotent marks calls that are safe to repeat.
	// Side-effecting actions such as publishing a post must leave this false.
	Idempotent bool
}

// Validate reports configuration problems that no retry can fix.
func (s RequestSpec) Validate() error {
	if strings.TrimSpace(s.Target) == "" {
		return ErrInvalidTarget
	}
	if s.Timeout < 0 {
		return errors.New("negative request timeout")
	}
	return nil
}

// HTTPMethod returns the upper-cased verb, defaulting to GET.
func (s RequestSpec) HTTPMethod() string {
	if s.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(s.Method)
}

// Transport performs exactly one attempt of a RequestSpec.
// token is empty unless spec.RequiresAuth is set.
type Transport interface {
	Invoke(ctx context.Context, spec RequestSpec, token string) (Payload, error)
}

// FuncTransport adapts a function to the Transport interface.
// Use this for database lookups or generated clients.
type FuncTransport func(ctx context.Context, spec RequestSpec, token string) (Payload, error)

// Invoke calls f.
func (f FuncTransport) Invoke(ctx context.Context, spec RequestSpec, token string) (Payload, error) {
	return f(ctx, spec, token)
}
