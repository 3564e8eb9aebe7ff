package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testLimiter(t *testing.T, maxAttempts int) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewLoginLimiter(client, Config{
		MaxLoginAttempts: maxAttempts,
		LoginCooldown:    time.Minute,
		ThrottleByIP:     true,
	})
	return limiter, srv
}

func TestLimiterAllowsWithinBudget(t *testing.T) {
	limiter, _ := testLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		limiter.RecordFailure(ctx, "user@example.com", "10.0.0.1")
	}
	if err := limiter.Check(ctx, "user@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("expected attempts within budget to pass, got %v", err)
	}
}

func TestLimiterBlocksOverBudget(t *testing.T) {
	limiter, _ := testLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.RecordFailure(ctx, "user@example.com", "10.0.0.1")
	}
	if err := limiter.Check(ctx, "user@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// A different account from a different address is unaffected.
	if err := limiter.Check(ctx, "other@example.com", "10.0.0.2"); err != nil {
		t.Fatalf("expected unrelated pair to pass, got %v", err)
	}
}

func TestLimiterThrottlesByIP(t *testing.T) {
	limiter, _ := testLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.RecordFailure(ctx, "user@example.com", "10.0.0.1")
	}
	// Same address, different account.
	if err := limiter.Check(ctx, "other@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP throttle to apply, got %v", err)
	}
}

func TestLimiterResetClearsCounters(t *testing.T) {
	limiter, _ := testLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.RecordFailure(ctx, "user@example.com", "10.0.0.1")
	}
	limiter.Reset(ctx, "user@example.com", "10.0.0.1")

	if err := limiter.Check(ctx, "user@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("expected reset to clear the budget, got %v", err)
	}
}

func TestLimiterCountersExpire(t *testing.T) {
	limiter, srv := testLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.RecordFailure(ctx, "user@example.com", "10.0.0.1")
	}
	srv.FastForward(2 * time.Minute)

	if err := limiter.Check(ctx, "user@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("expected cooldown to expire the counters, got %v", err)
	}
}

func TestLimiterFailsOpenWithoutRedis(t *testing.T) {
	limiter, srv := testLimiter(t, 3)
	srv.Close()

	if err := limiter.Check(context.Background(), "user@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("expected limiter to fail open, got %v", err)
	}
}
