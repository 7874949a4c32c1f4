// Package ratelimit provides request throttling and retry backoff for the
// upstream HTTP clients.
package ratelimit

import (
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// Config holds rate limiting and retry configuration.
type Config struct {
	RequestsPerSecond int `json:"requestsPerSecond"`
	MaxRetries        int `json:"maxRetries"`
	InitialBackoffMs  int `json:"initialBackoffMs"`
	MaxBackoffMs      int `json:"maxBackoffMs"`
}

// DefaultConfig returns the default rate limit configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10,
		MaxRetries:        3,
		InitialBackoffMs:  100,
		MaxBackoffMs:      30000,
	}
}

// Limiter enforces a minimum interval between requests.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewLimiter creates a limiter from the config. A non-positive rate
// disables throttling.
func NewLimiter(config Config) *Limiter {
	var interval time.Duration
	if config.RequestsPerSecond > 0 {
		interval = time.Second / time.Duration(config.RequestsPerSecond)
	}
	return &Limiter{interval: interval}
}

// Throttle blocks until the next request is allowed.
func (l *Limiter) Throttle() {
	if l.interval <= 0 {
		return
	}
	l.mu.Lock()
	now := time.Now()
	wait := l.interval - now.Sub(l.last)
	if wait > 0 {
		l.last = now.Add(wait)
	} else {
		l.last = now
	}
	l.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

// FetchRetryError represents an error when all retry attempts are
// exhausted.
type FetchRetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastError  error
}

func (e *FetchRetryError) Error() string {
	msg := "failed to fetch " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *FetchRetryError) Unwrap() error {
	return e.LastError
}

// IsRetryableStatus checks if an HTTP status code is retryable.
// Retryable: 429 and 5xx.
func IsRetryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status < 600)
}

// CalculateBackoff calculates exponential backoff with 0-25% jitter for a
// given attempt.
func CalculateBackoff(attempt int, config Config) time.Duration {
	exponential := float64(config.InitialBackoffMs) * math.Pow(2.0, float64(attempt))
	capped := math.Min(exponential, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * capped
	return time.Duration(capped+jitter) * time.Millisecond
}

// CalculateRateLimitBackoff calculates backoff for HTTP 429 responses,
// honoring a Retry-After header when the server provides one.
func CalculateRateLimitBackoff(attempt int, config Config, retryAfter string) time.Duration {
	if retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			jitter := time.Duration(rand.Int63n(1000)) * time.Millisecond
			return time.Duration(seconds)*time.Second + jitter
		}
	}

	// Rate limiting gets a steeper multiplier than ordinary server errors.
	exponential := float64(config.InitialBackoffMs) * math.Pow(3.0, float64(attempt))
	capped := math.Min(exponential, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * capped
	return time.Duration(capped+jitter) * time.Millisecond
}
