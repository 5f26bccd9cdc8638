package classroom

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket that paces calls to the gradebook
// API. Gradebook quotas are per-teacher and unforgiving; running into them
// turns every later submission into a 429.
type RateLimiter struct {
	mu sync.Mutex

	maxTokens   float64
	refillRate  float64 // tokens per second
	tokens      float64
	lastRefill  time.Time
	minInterval time.Duration
	lastRequest time.Time
	waitTimeout time.Duration
}

// RateLimiterConfig contains configuration for the rate limiter.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// BurstSize is the number of requests allowed in a burst.
	BurstSize int

	// MinInterval is the floor between consecutive requests.
	MinInterval time.Duration

	// WaitTimeout bounds how long Allow blocks for a token.
	WaitTimeout time.Duration
}

// DefaultRateLimiterConfig returns defaults safe for per-teacher API quotas.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 4.0,
		BurstSize:         8,
		MinInterval:       100 * time.Millisecond,
		WaitTimeout:       30 * time.Second,
	}
}

// NewRateLimiter creates a RateLimiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		maxTokens:   float64(config.BurstSize),
		refillRate:  config.RequestsPerSecond,
		tokens:      float64(config.BurstSize),
		lastRefill:  now,
		minInterval: config.MinInterval,
		lastRequest: now.Add(-config.MinInterval),
		waitTimeout: config.WaitTimeout,
	}
}

// Allow blocks until a token is available or the wait budget is spent.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	deadline := time.Now().Add(rl.waitTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		wait, ok := rl.tryTake()
		if ok {
			return nil
		}
		if time.Now().Add(wait).After(deadline) {
			return context.DeadlineExceeded
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// tryTake takes a token if one is available, otherwise returns how long to
// wait before trying again.
func (rl *RateLimiter) tryTake() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Refill
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if since := now.Sub(rl.lastRequest); since < rl.minInterval {
		return rl.minInterval - since, false
	}
	if rl.tokens < 1 {
		needed := (1 - rl.tokens) / rl.refillRate
		return time.Duration(needed * float64(time.Second)), false
	}

	rl.tokens--
	rl.lastRequest = now
	return 0, true
}
