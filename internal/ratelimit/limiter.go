package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited signals that the caller exceeded the login attempt budget.
var ErrRateLimited = errors.New("too many login attempts")

// Config holds limiter tuning parameters.
type Config struct {
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	ThrottleByIP     bool
}

// LoginLimiter enforces per-email and per-IP failed-login budgets using
// Redis counters with a cooldown TTL.
type LoginLimiter struct {
	client *redis.Client
	config Config
}

// NewLoginLimiter creates a limiter backed by the given Redis client.
func NewLoginLimiter(client *redis.Client, cfg Config) *LoginLimiter {
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = 10
	}
	if cfg.LoginCooldown <= 0 {
		cfg.LoginCooldown = 15 * time.Minute
	}
	return &LoginLimiter{client: client, config: cfg}
}

// Check reports whether the email+IP pair is still within its attempt
// budget. A Redis outage fails open: throttling is protection, not a
// correctness dependency of login.
func (l *LoginLimiter) Check(ctx context.Context, email, ip string) error {
	if err := l.checkCounter(ctx, emailKey(email)); err != nil {
		return err
	}
	if l.config.ThrottleByIP && ip != "" {
		return l.checkCounter(ctx, ipKey(ip))
	}
	return nil
}

// RecordFailure increments the failed-attempt counters for the pair.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email, ip string) {
	l.increment(ctx, emailKey(email))
	if l.config.ThrottleByIP && ip != "" {
		l.increment(ctx, ipKey(ip))
	}
}

// Reset clears the counters after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email, ip string) {
	keys := []string{emailKey(email)}
	if l.config.ThrottleByIP && ip != "" {
		keys = append(keys, ipKey(ip))
	}
	l.client.Del(ctx, keys...)
}

func (l *LoginLimiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.client.Get(ctx, key).Int64()
	if err != nil {
		return nil
	}
	if count >= int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *LoginLimiter) increment(ctx context.Context, key string) {
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.config.LoginCooldown)
	_, _ = pipe.Exec(ctx)
}

func emailKey(email string) string {
	return fmt.Sprintf("login:attempts:email:%s", email)
}

func ipKey(ip string) string {
	return fmt.Sprintf("login:attempts:ip:%s", ip)
}
