// Package credential supplies bearer tokens to the request executor.
package credential

import (
	"context"
	"errors"
	"os"
	"strings"
)

// ErrNoCredential is returned when no token is available.
var ErrNoCredential = errors.New("no credential available")

// Store supplies the bearer token for authenticated requests.
type Store interface {
	Token(ctx context.Context) (string, error)
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f StoreFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticStore always returns the same token.
type StaticStore string

// Token returns the stored token or ErrNoCredential when empty.
func (s StaticStore) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoCredential
	}
	return string(s), nil
}

// EnvStore reads the token from an environment variable on every call,
// so a rotated secret is picked up without a restart.
type EnvStore struct {
	Key string
}

// Token returns the trimmed value of the variable or ErrNoCredential.
func (s EnvStore) Token(context.Context) (string, error) {
	v := strings.TrimSpace(os.Getenv(s.Key))
	if v == "" {
		return "", ErrNoCredential
	}
	return v, nil
}
