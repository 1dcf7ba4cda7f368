package retry

import (
	"context"
	"time"

	"github.com/vietddude/relay/internal/infra/rpc/provider"
)

type attemptResult struct {
	payload provider.Payload
	err     error
}

// WithTimeout races op against timeout.
//
// op receives a context that is cancelled when the deadline fires, so transports
// honoring ctx abort their in-flight call. A transport that ignores ctx keeps
// running in the background; its result is dropped into a buffered channel and
// discarded. If the parent ctx ends first its error is returned unchanged so the
// caller can tell cancellation apart from an attempt timeout.
// A non-positive timeout runs op with no attempt deadline.
func WithTimeout(
	ctx context.Context,
	timeout time.Duration,
	op func(ctx context.Context) (provider.Payload, error),
) (provider.Payload, error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		payload, err := op(attemptCtx)
		done <- attemptResult{payload: payload, err: err}
	}()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case res := <-done:
		return res.payload, res.err
	case <-deadline:
		return nil, &TimeoutError{After: timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
