package rpc

import (
	"net/http"

	"github.com/vietddude/relay/internal/infra/rpc/provider"
)

// NewGet creates an idempotent GET spec.
func NewGet(target string, requiresAuth bool) RequestSpec {
	return provider.RequestSpec{
		Target:       target,
		Method:       http.MethodGet,
		RequiresAuth: requiresAuth,
		Idempotent:   true,
	}
}

// NewPut creates an idempotent PUT spec.
func NewPut(target string, body any, requiresAuth bool) RequestSpec {
	return provider.RequestSpec{
		Target:       target,
		Method:       http.MethodPut,
		Body:         body,
		RequiresAuth: requiresAuth,
		Idempotent:   true,
	}
}

// NewDelete creates an idempotent DELETE spec.
func NewDelete(target string, requiresAuth bool) RequestSpec {
	return provider.RequestSpec{
		Target:       target,
		Method:       http.MethodDelete,
		RequiresAuth: requiresAuth,
		Idempotent:   true,
	}
}

// NewPost creates a POST spec the server deduplicates by a natural key,
// so replaying it is safe.
func NewPost(target string, body any, requiresAuth bool) RequestSpec {
	return provider.RequestSpec{
		Target:       target,
		Method:       http.MethodPost,
		Body:         body,
		RequiresAuth: requiresAuth,
		Idempotent:   true,
	}
}

// NewAction creates a non-idempotent POST spec. Execute rejects it;
// run it with ExecuteOnce.
func NewAction(target string, body any, requiresAuth bool) RequestSpec {
	return provider.RequestSpec{
		Target:       target,
		Method:       http.MethodPost,
		Body:         body,
		RequiresAuth: requiresAuth,
	}
}
