package rate

import "errors"

var (
	// ErrRateLimited reports an exhausted lookup window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis command failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
