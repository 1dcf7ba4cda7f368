package retry

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/relay/internal/infra/rpc/provider"
)

// scriptedTransport replays one outcome per attempt and records invocations.
type scriptedTransport struct {
	mu      sync.Mutex
	calls   int
	tokens  []string
	outcome func(attempt int) (provider.Payload, error)
}

func (s *scriptedTransport) Invoke(ctx context.Context, spec provider.RequestSpec, token string) (provider.Payload, error) {
	s.mu.Lock()
	s.calls++
	attempt := s.calls
	s.tokens = append(s.tokens, token)
	s.mu.Unlock()
	return s.outcome(attempt)
}

func (s *scriptedTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeSleeper records requested delays without waiting.
type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	hook   func(ctx context.Context)
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return ctx.Err()
}

func (f *fakeSleeper) Delays() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

func idempotentSpec(target string) provider.RequestSpec {
	return provider.RequestSpec{
		Target:     target,
		Method:     "GET",
		Timeout:    time.Second,
		Idempotent: true,
	}
}

func httpStatus(code int) error {
	return &provider.StatusError{Code: code}
}
