package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(429))
	assert.True(t, IsRetryableStatus(500))
	assert.True(t, IsRetryableStatus(503))
	assert.False(t, IsRetryableStatus(200))
	assert.False(t, IsRetryableStatus(400))
	assert.False(t, IsRetryableStatus(404))
	assert.False(t, IsRetryableStatus(600))
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	config := Config{InitialBackoffMs: 100, MaxBackoffMs: 500}

	first := CalculateBackoff(0, config)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.LessOrEqual(t, first, 125*time.Millisecond)

	second := CalculateBackoff(1, config)
	assert.GreaterOrEqual(t, second, 200*time.Millisecond)
	assert.LessOrEqual(t, second, 250*time.Millisecond)

	// 100 * 2^5 exceeds the cap.
	capped := CalculateBackoff(5, config)
	assert.LessOrEqual(t, capped, 625*time.Millisecond)
}

func TestCalculateRateLimitBackoffHonorsRetryAfter(t *testing.T) {
	config := DefaultConfig()

	backoff := CalculateRateLimitBackoff(0, config, "2")
	assert.GreaterOrEqual(t, backoff, 2*time.Second)
	assert.Less(t, backoff, 3*time.Second)

	// Unparseable headers fall back to exponential backoff.
	backoff = CalculateRateLimitBackoff(0, config, "soon")
	assert.GreaterOrEqual(t, backoff, 100*time.Millisecond)
}

func TestThrottleEnforcesInterval(t *testing.T) {
	limiter := NewLimiter(Config{RequestsPerSecond: 100})

	start := time.Now()
	for i := 0; i < 3; i++ {
		limiter.Throttle()
	}
	elapsed := time.Since(start)

	// Three calls at 100 rps need at least two 10ms gaps.
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestThrottleDisabledWithoutRate(t *testing.T) {
	limiter := NewLimiter(Config{})

	start := time.Now()
	for i := 0; i < 100; i++ {
		limiter.Throttle()
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestFetchRetryErrorMessage(t *testing.T) {
	err := &FetchRetryError{
		URL:        "http://pricing/delivery_options",
		Attempts:   4,
		LastStatus: 503,
		LastError:  errors.New("connection refused"),
	}

	msg := err.Error()
	assert.Contains(t, msg, "http://pricing/delivery_options")
	assert.Contains(t, msg, "4 attempts")
	assert.Contains(t, msg, "HTTP 503")
	assert.Contains(t, msg, "connection refused")
	assert.Equal(t, "connection refused", err.Unwrap().Error())
}
