package ratelimiter

import (
	"fmt"
	"sync"
)

// Clients hitting the same endpoint with the same key share one quota, so
// limiters are kept in a process-wide registry.
type registry struct {
	mu       sync.Mutex
	limiters map[string]*RateLimiter
}

var shared = &registry{limiters: make(map[string]*RateLimiter)}

// GetOrCreateRateLimiter returns the shared limiter for scope and config.
func GetOrCreateRateLimiter(scope string, rps float64, burst int) *RateLimiter {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	key := fmt.Sprintf("%s_%g_%d", scope, rps, burst)
	if limiter, ok := shared.limiters[key]; ok {
		return limiter
	}
	limiter := NewRateLimiterFromRPS(rps, burst)
	shared.limiters[key] = limiter
	return limiter
}

// ResetSharedLimiters drops every registered limiter.
func ResetSharedLimiters() {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	shared.limiters = make(map[string]*RateLimiter)
}

// GetSharedRateLimiterStats returns statistics about all shared rate limiters
func GetSharedRateLimiterStats() map[string]any {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	stats := make(map[string]any, len(shared.limiters))
	for key, limiter := range shared.limiters {
		available, capacity, interval := limiter.GetStats()
		stats[key] = map[string]any{
			"available_tokens": available,
			"capacity":         capacity,
			"interval_ms":      interval.Milliseconds(),
		}
	}
	return stats
}
