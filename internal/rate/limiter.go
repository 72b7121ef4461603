package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds outbound lookup budget parameters.
type Config struct {
	// KeyPrefix namespaces counters so several deployments can share a Redis.
	KeyPrefix        string
	MaxLookups       int
	MaxLookupsPerIP  int
	Window           time.Duration
	EnableIPThrottle bool
}

// Limiter enforces a global and an optional per-client-IP budget of range
// lookups using fixed-window Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Allow consumes one lookup from the budget. It returns [ErrRateLimited] when
// the client's window or the global window is exhausted. Requests refused by
// the client's window are not counted globally.
func (l *Limiter) Allow(ctx context.Context, clientIP string) error {
	if l == nil {
		return nil
	}

	// Per-IP first: a client over its own window must not drain the global one.
	if l.config.EnableIPThrottle && clientIP != "" && l.config.MaxLookupsPerIP > 0 {
		count, err := l.incrementWithTTL(ctx, l.ipKey(clientIP), l.config.Window)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLookupsPerIP) {
			return ErrRateLimited
		}
	}

	if l.config.MaxLookups > 0 {
		count, err := l.incrementWithTTL(ctx, l.globalKey(), l.config.Window)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLookups) {
			return ErrRateLimited
		}
	}

	return nil
}

// Used returns the lookups counted in the current global window.
// A missing key means the window has not started and reports zero.
func (l *Limiter) Used(ctx context.Context) (int, error) {
	count, err := l.redis.Get(ctx, l.globalKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// Reset clears the global window and, when clientIP is set, that client's window.
func (l *Limiter) Reset(ctx context.Context, clientIP string) error {
	keys := []string{l.globalKey()}
	if clientIP != "" {
		keys = append(keys, l.ipKey(clientIP))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) globalKey() string {
	return l.config.KeyPrefix + ":rl:g"
}

func (l *Limiter) ipKey(ip string) string {
	return l.config.KeyPrefix + ":rl:ip:" + ip
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
