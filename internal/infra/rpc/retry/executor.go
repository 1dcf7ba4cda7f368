// Package retry runs remote calls with per-attempt timeouts, bounded
// exponential backoff and pluggable error classification.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/relay/internal/infra/credential"
	"github.com/vietddude/relay/internal/infra/metrics"
	"github.com/vietddude/relay/internal/infra/rpc/provider"
)

// DefaultTimeout bounds an attempt whose spec sets no timeout.
const DefaultTimeout = 30 * time.Second

// Executor drives a Transport. It holds no per-call state and is safe for
// concurrent use by any number of callers.
type Executor struct {
	transport      provider.Transport
	sleeper        Sleeper
	credentials    credential.Store
	logger         *slog.Logger
	defaultTimeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithSleeper replaces the backoff sleeper. Tests use this to avoid real delays.
func WithSleeper(s Sleeper) Option {
	return func(e *Executor) {
		e.sleeper = s
	}
}

// WithCredentials sets the store consulted for specs that require authentication.
func WithCredentials(store credential.Store) Option {
	return func(e *Executor) {
		e.credentials = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithDefaultTimeout sets the attempt timeout used when a spec has none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.defaultTimeout = d
	}
}

// NewExecutor creates an executor over transport.
func NewExecutor(transport provider.Transport, opts ...Option) *Executor {
	e := &Executor{
		transport:      transport,
		sleeper:        RealSleeper,
		logger:         slog.Default(),
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs an idempotent spec, retrying failures that classifier marks
// Retryable until policy.MaxAttempts invocations have been made.
// A nil classifier means DefaultClassifier.
func (e *Executor) Execute(
	ctx context.Context,
	spec provider.RequestSpec,
	policy Policy,
	classifier Classifier,
) (provider.Payload, error) {
	if !spec.Idempotent {
		return nil, fmt.Errorf("%s: %w", spec.Target, ErrNotIdempotent)
	}
	if classifier == nil {
		classifier = DefaultClassifier
	}
	if err := policy.Validate(); err != nil {
		return nil, e.configFailure(spec, fmt.Errorf("invalid retry policy: %w", err))
	}

	token, err := e.prepare(ctx, spec)
	if err != nil {
		return nil, err
	}

	log := e.logger.With(
		"request_id", uuid.NewString(),
		"target", spec.Target,
		"method", spec.HTTPMethod(),
	)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, e.cancelled(log, spec, attempt-1, err)
		}

		payload, err := e.attempt(ctx, spec, token)
		if err == nil {
			metrics.AttemptsTotal.WithLabelValues(spec.Target, "success").Inc()
			metrics.CallsTotal.WithLabelValues(spec.Target, "success").Inc()
			log.Debug("Request succeeded", "attempt", attempt)
			return payload, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, e.cancelled(log, spec, attempt, ctxErr)
		}

		class := classifier.Classify(err)
		metrics.AttemptsTotal.WithLabelValues(spec.Target, class.String()).Inc()

		if class == Terminal || attempt >= policy.MaxAttempts {
			failed := &FailedError{
				Target:         spec.Target,
				Attempts:       attempt,
				Classification: class,
				Exhausted:      class == Retryable,
				Err:            err,
			}
			result := "terminal"
			if failed.Exhausted {
				result = "exhausted"
			}
			metrics.CallsTotal.WithLabelValues(spec.Target, result).Inc()
			log.Warn("Request failed",
				"attempt", attempt,
				"max_attempts", policy.MaxAttempts,
				"classification", class.String(),
				"retried", false,
				"error", err)
			return nil, failed
		}

		delay := policy.Delay(attempt)
		metrics.RetriesTotal.WithLabelValues(spec.Target).Inc()
		metrics.BackoffSeconds.WithLabelValues(spec.Target).Observe(delay.Seconds())
		log.Debug("Request failed, retrying",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"retried", true,
			"delay", delay,
			"error", err)

		if err := e.sleeper.Sleep(ctx, delay); err != nil {
			return nil, e.cancelled(log, spec, attempt, err)
		}
	}
}

// ExecuteOnce runs spec exactly once with no classification and no retry.
// Side-effecting operations such as publishing content go through here.
func (e *Executor) ExecuteOnce(ctx context.Context, spec provider.RequestSpec) (provider.Payload, error) {
	token, err := e.prepare(ctx, spec)
	if err != nil {
		return nil, err
	}

	log := e.logger.With(
		"request_id", uuid.NewString(),
		"target", spec.Target,
		"method", spec.HTTPMethod(),
	)

	if err := ctx.Err(); err != nil {
		return nil, e.cancelled(log, spec, 0, err)
	}

	payload, err := e.attempt(ctx, spec, token)
	if err == nil {
		metrics.AttemptsTotal.WithLabelValues(spec.Target, "success").Inc()
		metrics.CallsTotal.WithLabelValues(spec.Target, "success").Inc()
		log.Debug("Request succeeded", "attempt", 1)
		return payload, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, e.cancelled(log, spec, 1, ctxErr)
	}

	metrics.AttemptsTotal.WithLabelValues(spec.Target, "failure").Inc()
	metrics.CallsTotal.WithLabelValues(spec.Target, "terminal").Inc()
	log.Warn("Request failed, not retrying", "attempt", 1, "retried", false, "error", err)

	return nil, &FailedError{
		Target:         spec.Target,
		Attempts:       1,
		Classification: Terminal,
		Err:            err,
	}
}

// prepare validates spec and resolves the bearer token before any attempt.
func (e *Executor) prepare(ctx context.Context, spec provider.RequestSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", e.configFailure(spec, err)
	}
	if !spec.RequiresAuth {
		return "", nil
	}
	if e.credentials == nil {
		return "", e.configFailure(spec, credential.ErrNoCredential)
	}

	token, err := e.credentials.Token(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", cancelled(ctxErr)
		}
		return "", e.configFailure(spec, fmt.Errorf("resolve credential: %w", err))
	}
	if token == "" {
		return "", e.configFailure(spec, credential.ErrNoCredential)
	}
	return token, nil
}

func (e *Executor) attempt(ctx context.Context, spec provider.RequestSpec, token string) (provider.Payload, error) {
	timeout := spec.Timeout
	if timeout == 0 {
		timeout = e.defaultTimeout
	}
	return WithTimeout(ctx, timeout, func(ctx context.Context) (provider.Payload, error) {
		return e.transport.Invoke(ctx, spec, token)
	})
}

func (e *Executor) configFailure(spec provider.RequestSpec, err error) error {
	metrics.CallsTotal.WithLabelValues(spec.Target, "configuration").Inc()
	return &FailedError{
		Target:         spec.Target,
		Classification: Terminal,
		Err:            err,
	}
}

func (e *Executor) cancelled(log *slog.Logger, spec provider.RequestSpec, attempts int, err error) error {
	metrics.CallsTotal.WithLabelValues(spec.Target, "cancelled").Inc()
	log.Debug("Request cancelled", "attempts", attempts, "error", err)
	if errors.Is(err, ErrCancelled) {
		return err
	}
	return cancelled(err)
}
