package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_Basic(t *testing.T) {
	// 1 token per 100ms, max 5 tokens in bucket
	rl := NewRateLimiter(100*time.Millisecond, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Failed to get token %d: %v", i+1, err)
		}
	}

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Failed to get token after waiting: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Expected to wait at least 80ms, but waited %v", elapsed)
	}
}

func TestRateLimiter_TryAcquire(t *testing.T) {
	rl := NewRateLimiter(100*time.Millisecond, 2)

	if !rl.TryAcquire() || !rl.TryAcquire() {
		t.Fatal("Expected to acquire burst tokens")
	}
	if rl.TryAcquire() {
		t.Error("Expected bucket to be empty")
	}
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiterFromRPS(0.5, 1)
	if !rl.TryAcquire() {
		t.Fatal("Expected initial token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("Expected Wait to fail once the context expires")
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiterFromRPS(0, 0)
	if rl.RPS() != 1 {
		t.Errorf("Expected rps fallback 1, got %v", rl.RPS())
	}
	_, capacity, interval := rl.GetStats()
	if capacity != 1 {
		t.Errorf("Expected burst fallback 1, got %d", capacity)
	}
	if interval != time.Second {
		t.Errorf("Expected 1s interval, got %v", interval)
	}
}

func TestGetOrCreateRateLimiter_Shared(t *testing.T) {
	ResetSharedLimiters()
	defer ResetSharedLimiters()

	a := GetOrCreateRateLimiter("https://toncenter.com", 10, 5)
	b := GetOrCreateRateLimiter("https://toncenter.com", 10, 5)
	c := GetOrCreateRateLimiter("https://testnet.toncenter.com", 10, 5)

	if a != b {
		t.Error("Expected the same limiter for identical scope and config")
	}
	if a == c {
		t.Error("Expected distinct limiters for distinct scopes")
	}
	if n := len(GetSharedRateLimiterStats()); n != 2 {
		t.Errorf("Expected 2 registered limiters, got %d", n)
	}
}
