package retry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Delay(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 1*time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 1*time.Second, p.Delay(0))
}

func TestPolicy_DelayCapped(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Multiplier: 3, MaxDelay: 5 * time.Second}

	assert.Equal(t, 500*time.Millisecond, p.Delay(1))
	assert.Equal(t, 1500*time.Millisecond, p.Delay(2))
	assert.Equal(t, 4500*time.Millisecond, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4))
	assert.Equal(t, 5*time.Second, p.Delay(60))
}

func TestPolicy_DelayOverflowSaturates(t *testing.T) {
	p := Policy{MaxAttempts: 200, BaseDelay: time.Hour, Multiplier: 10}
	assert.Greater(t, p.Delay(100), time.Duration(0))
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, MobilePolicy().Validate())
	assert.NoError(t, GeminiPolicy().Validate())

	tests := []Policy{
		{MaxAttempts: 0, BaseDelay: time.Second, Multiplier: 2},
		{MaxAttempts: 3, BaseDelay: -time.Second, Multiplier: 2},
		{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 0.5},
		{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2, MaxDelay: -1},
		{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: math.NaN()},
		{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: math.Inf(1)},
	}
	for _, p := range tests {
		assert.Error(t, p.Validate(), "policy=%+v", p)
	}
}

func TestPresets(t *testing.T) {
	for _, p := range []Policy{MobilePolicy(), GeminiPolicy()} {
		assert.Equal(t, 3, p.MaxAttempts)
		assert.Equal(t, time.Second, p.BaseDelay)
		assert.Equal(t, 2.0, p.Multiplier)
	}
}
