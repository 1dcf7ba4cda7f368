package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/relay/internal/infra/rpc/provider"
)

func TestWithTimeout_CompletesFirst(t *testing.T) {
	payload, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (provider.Payload, error) {
		return provider.Payload("done"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", payload.String())
}

func TestWithTimeout_PropagatesError(t *testing.T) {
	cause := errors.New("boom")
	_, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (provider.Payload, error) {
		return nil, cause
	})

	assert.ErrorIs(t, err, cause)
}

func TestWithTimeout_DeadlineCancelsOperation(t *testing.T) {
	aborted := make(chan struct{})

	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (provider.Payload, error) {
		<-ctx.Done()
		close(aborted)
		return nil, ctx.Err()
	})

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, 10*time.Millisecond, timeoutErr.After)
	assert.True(t, timeoutErr.Timeout())

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("operation context was not cancelled after the deadline")
	}
}

func TestWithTimeout_IgnoringOperationIsAbandoned(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (provider.Payload, error) {
		<-release
		return provider.Payload("too late"), nil
	})

	var timeoutErr *TimeoutError
	assert.True(t, errors.As(err, &timeoutErr))
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithTimeout_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	_, err := WithTimeout(ctx, time.Minute, func(opCtx context.Context) (provider.Payload, error) {
		cancel()
		<-opCtx.Done()
		return nil, opCtx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestWithTimeout_NoDeadline(t *testing.T) {
	payload, err := WithTimeout(context.Background(), 0, func(ctx context.Context) (provider.Payload, error) {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		return provider.Payload("ok"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", payload.String())
}

func TestRealSleeper(t *testing.T) {
	require.NoError(t, RealSleeper.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, RealSleeper.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, RealSleeper.Sleep(ctx, 0), context.Canceled)
}
