package goBreach

import (
	"errors"

	"github.com/MrEthical07/goBreach/hibp"
)

var (
	// ErrLookupUnavailable reports a transport failure talking to the range API.
	// It is the same sentinel as [hibp.ErrLookupUnavailable].
	ErrLookupUnavailable = hibp.ErrLookupUnavailable
	// ErrLookupRateLimited is returned when the outbound lookup budget is spent.
	// No request is sent.
	ErrLookupRateLimited = errors.New("breach lookup rate limited")
	// ErrAutomaticChecksDisabled is returned by CheckAutomatic while automatic
	// checks are off, either by configuration or after a lookup failure.
	ErrAutomaticChecksDisabled = errors.New("automatic breach checks disabled")
	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrRedisRequired is returned by Build when a feature needs a Redis client.
	ErrRedisRequired = errors.New("redis client required")
	// ErrRateLimiterUnavailable is returned when the lookup budget cannot be
	// consulted. The lookup is not attempted.
	ErrRateLimiterUnavailable = errors.New("rate limiter unavailable")
	// ErrAvailabilityStoreUnavailable wraps failures of the shared availability flag.
	ErrAvailabilityStoreUnavailable = errors.New("availability store unavailable")
)
