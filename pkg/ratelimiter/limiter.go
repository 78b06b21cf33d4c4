package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate.Limiter. TonCenter quotas are
// expressed in requests per second and may be fractional.
type RateLimiter struct {
	limiter *rate.Limiter
	burst   int
	rps     float64
}

// NewRateLimiter creates a limiter that refills one token every interval.
func NewRateLimiter(interval time.Duration, burst int) *RateLimiter {
	if interval <= 0 {
		interval = time.Second
	}
	return NewRateLimiterFromRPS(float64(time.Second)/float64(interval), burst)
}

// NewRateLimiterFromRPS creates a limiter from a requests-per-second value.
// Non-positive rps falls back to 1, burst to 1.
func NewRateLimiterFromRPS(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		burst:   burst,
		rps:     rps,
	}
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// TryAcquire attempts to acquire a token without blocking
func (rl *RateLimiter) TryAcquire() bool {
	return rl.limiter.Allow()
}

func (rl *RateLimiter) RPS() float64 { return rl.rps }

// GetStats returns current limiter statistics
func (rl *RateLimiter) GetStats() (available, capacity int, interval time.Duration) {
	available = int(rl.limiter.Tokens())
	if available < 0 {
		available = 0
	}
	capacity = rl.burst
	interval = time.Duration(float64(time.Second) / rl.rps)
	return
}
