package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/relay/internal/infra/credential"
	"github.com/vietddude/relay/internal/infra/rpc/provider"
)

// Classification decides whether the executor loops again.
type Classification int

const (
	// Terminal is the zero value so that anything unclassified fails closed.
	Terminal Classification = iota
	Retryable
)

func (c Classification) String() string {
	switch c {
	case Retryable:
		return "retryable"
	default:
		return "terminal"
	}
}

// Classifier maps an attempt failure to a Classification.
// Implementations must be pure and total.
type Classifier interface {
	Classify(err error) Classification
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(err error) Classification

// Classify calls f.
func (f ClassifierFunc) Classify(err error) Classification {
	return f(err)
}

// DefaultClassifier implements the shared policy of both call sites:
// 429, 5xx, timeouts and connectivity failures retry; everything else is terminal.
var DefaultClassifier Classifier = ClassifierFunc(classifyDefault)

func classifyDefault(err error) Classification {
	if err == nil {
		return Terminal
	}

	// Configuration problems are never fixed by another attempt.
	if errors.Is(err, credential.ErrNoCredential) || errors.Is(err, provider.ErrInvalidTarget) {
		return Terminal
	}

	var decodeErr *provider.DecodeError
	if errors.As(err, &decodeErr) {
		return Terminal
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.Code)
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) || errors.Is(err, context.DeadlineExceeded) {
		return Retryable
	}

	if isConnectivity(err) {
		return Retryable
	}

	return Terminal
}

func classifyStatus(code int) Classification {
	if code == http.StatusTooManyRequests || (code >= 500 && code <= 599) {
		return Retryable
	}
	return Terminal
}

func isConnectivity(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}

// retryableCodes are the gRPC status codes providers use for transient conditions.
var retryableCodes = map[codes.Code]bool{
	codes.Unavailable:       true,
	codes.ResourceExhausted: true,
	codes.DeadlineExceeded:  true,
}

// GRPCClassifier classifies errors that carry a gRPC status.
var GRPCClassifier Classifier = ClassifierFunc(func(err error) Classification {
	if err == nil {
		return Terminal
	}
	s, ok := status.FromError(err)
	if !ok {
		return Terminal
	}
	if retryableCodes[s.Code()] {
		return Retryable
	}
	return Terminal
})

// fallbackMarkers are matched against unstructured provider messages only when
// no status field is available.
var fallbackMarkers = []string{"RESOURCE_EXHAUSTED", "UNAVAILABLE"}

// ProviderStatusClassifier classifies generative-AI provider error envelopes.
// A 429 or 5xx HTTP status always retries. Otherwise the status name is parsed
// into a gRPC code, and message substrings are consulted only when neither an
// HTTP status nor a known status name is available.
var ProviderStatusClassifier Classifier = ClassifierFunc(func(err error) Classification {
	var provErr *provider.ProviderError
	if !errors.As(err, &provErr) {
		return Terminal
	}

	if provErr.HTTPStatus != 0 && classifyStatus(provErr.HTTPStatus) == Retryable {
		return Retryable
	}

	if provErr.Status != "" {
		var code codes.Code
		if code.UnmarshalJSON([]byte(`"`+provErr.Status+`"`)) == nil {
			if retryableCodes[code] {
				return Retryable
			}
			return Terminal
		}
	}

	if provErr.HTTPStatus != 0 {
		return Terminal
	}

	for _, marker := range fallbackMarkers {
		if strings.Contains(provErr.Message, marker) {
			return Retryable
		}
	}
	return Terminal
})

// Any returns a classifier that reports Retryable when any member does.
// With no members it classifies everything as Terminal.
func Any(classifiers ...Classifier) Classifier {
	return ClassifierFunc(func(err error) Classification {
		for _, c := range classifiers {
			if c != nil && c.Classify(err) == Retryable {
				return Retryable
			}
		}
		return Terminal
	})
}
