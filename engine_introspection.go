package goBreach

import (
	"context"
	"time"
)

// HealthStatus is an on-demand dependency and guard check.
type HealthStatus struct {
	RedisConfigured        bool
	RedisAvailable         bool
	RedisLatency           time.Duration
	AutomaticChecksEnabled bool
	// UnavailableSince is when this engine last disabled automatic checks.
	// It is zero while they are enabled locally.
	UnavailableSince time.Time
}

// Health pings Redis, when configured, and reports the availability guard.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.availability == nil {
		return HealthStatus{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	status := HealthStatus{
		AutomaticChecksEnabled: e.AutomaticChecksEnabled(ctx),
		UnavailableSince:       e.availability.since(),
	}
	if e.availStore == nil {
		return status
	}

	status.RedisConfigured = true
	latency, err := e.availStore.Ping(ctx)
	status.RedisAvailable = err == nil
	status.RedisLatency = latency
	return status
}

// StatusReport is a summary of the effective configuration. It never
// includes anything derived from checked secrets.
type StatusReport struct {
	Endpoint            string
	UserAgent           string
	Padding             bool
	Timeout             time.Duration
	AutomaticChecks     bool
	AvailabilityShared  bool
	DisableFor          time.Duration
	RateLimitingActive  bool
	MaxLookups          int
	MaxLookupsPerIP     int
	RateLimitWindow     time.Duration
	BulkConcurrency     int
	SkipExpired         bool
	AuditEnabled        bool
	MetricsEnabled      bool
	LatencyHistograms   bool
	CustomHTTPTransport bool
}

// StatusReport summarizes the effective configuration. It performs no I/O.
func (e *Engine) StatusReport() StatusReport {
	if e == nil {
		return StatusReport{}
	}

	endpoint := e.config.Client.Endpoint
	if endpoint == "" {
		endpoint = DefaultConfig().Client.Endpoint
	}

	return StatusReport{
		Endpoint:            endpoint,
		UserAgent:           e.config.Client.UserAgent,
		Padding:             e.config.Client.Padding,
		Timeout:             e.config.Client.Timeout,
		AutomaticChecks:     e.config.Automatic.Enabled,
		AvailabilityShared:  e.config.Availability.Shared,
		DisableFor:          e.config.Availability.DisableFor,
		RateLimitingActive:  e.limiter != nil,
		MaxLookups:          e.config.RateLimit.MaxLookups,
		MaxLookupsPerIP:     e.config.RateLimit.MaxLookupsPerIP,
		RateLimitWindow:     e.config.RateLimit.Window,
		BulkConcurrency:     e.config.Bulk.Concurrency,
		SkipExpired:         e.config.Bulk.SkipExpired,
		AuditEnabled:        e.audit != nil,
		MetricsEnabled:      e.metrics.Enabled(),
		LatencyHistograms:   e.metrics.LatencyEnabled(),
		CustomHTTPTransport: e.customHTTP,
	}
}
