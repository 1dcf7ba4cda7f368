package retry

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Policy bounds the attempt count and backoff shape of one call site.
// It is static configuration and safe for concurrent use.
type Policy struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	Multiplier  float64       `yaml:"multiplier"`
	MaxDelay    time.Duration `yaml:"max_delay"` // 0 = uncapped
}

// MobilePolicy mirrors the backend API client's retry settings.
func MobilePolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		Multiplier:  2.0,
	}
}

// GeminiPolicy mirrors the generative-AI wrapper's retry settings.
// Callers pair it with a 30s per-attempt timeout.
func GeminiPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		Multiplier:  2.0,
	}
}

// Validate checks the policy for values the executor cannot honor.
func (p Policy) Validate() error {
	var errs []error
	if p.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be >= 1, got %d", p.MaxAttempts))
	}
	if p.BaseDelay < 0 {
		errs = append(errs, fmt.Errorf("base_delay must be >= 0, got %v", p.BaseDelay))
	}
	if !(p.Multiplier >= 1) || math.IsInf(p.Multiplier, 1) {
		errs = append(errs, fmt.Errorf("multiplier must be a finite value >= 1, got %v", p.Multiplier))
	}
	if p.MaxDelay < 0 {
		errs = append(errs, fmt.Errorf("max_delay must be >= 0, got %v", p.MaxDelay))
	}
	return errors.Join(errs...)
}

// Delay returns the wait before attempt+1, given that attempt (1-based) just failed:
// BaseDelay * Multiplier^(attempt-1), capped at MaxDelay when set.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
