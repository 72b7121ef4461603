package goBreach

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goBreach/hibp"
)

// Config is the full Engine configuration. Start from [DefaultConfig] and
// override fields; Build validates the result.
type Config struct {
	Client       ClientConfig
	Automatic    AutomaticConfig
	Bulk         BulkConfig
	Availability AvailabilityConfig
	RateLimit    RateLimitConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
	Storage      StorageConfig
}

// ClientConfig controls the range API client.
type ClientConfig struct {
	Endpoint  string
	UserAgent string
	// Padding sends Add-Padding: true and treats count-0 rows as decoys.
	Padding bool
	// Timeout bounds one range request including the body read. It is
	// ignored when a custom *http.Client is supplied to the Builder.
	Timeout          time.Duration
	MaxResponseBytes int64
}

// AutomaticConfig controls CheckAutomatic.
type AutomaticConfig struct {
	Enabled bool
}

// BulkConfig controls CheckAll.
type BulkConfig struct {
	// Concurrency is the number of lookups in flight. 1 checks records in order.
	Concurrency int
	SkipExpired bool
}

// AvailabilityConfig controls the guard that disables automatic checks after
// a lookup becomes unavailable.
type AvailabilityConfig struct {
	// DisableFor is how long automatic checks stay off after a failure.
	// Zero keeps them off until ResetAvailability or process restart.
	DisableFor time.Duration
	// Shared publishes the tripped state to Redis for every engine using
	// the same Storage.RedisPrefix.
	Shared bool
}

// RateLimitConfig bounds outbound lookups with fixed Redis windows.
type RateLimitConfig struct {
	Enabled          bool
	MaxLookups       int
	MaxLookupsPerIP  int
	Window           time.Duration
	EnableIPThrottle bool
}

// AuditConfig controls asynchronous audit delivery.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// StorageConfig names the Redis keyspace shared by the limiter and the
// availability flag.
type StorageConfig struct {
	RedisPrefix string
}

// DefaultConfig returns the configuration used when the Builder is given none.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Client: ClientConfig{
			Endpoint:  hibp.DefaultEndpoint,
			UserAgent: hibp.DefaultUserAgent,
			Padding:   true,
			Timeout:   hibp.DefaultTimeout,
		},
		Automatic: AutomaticConfig{
			Enabled: true,
		},
		Bulk: BulkConfig{
			Concurrency: 1,
			SkipExpired: true,
		},
		Availability: AvailabilityConfig{
			DisableFor: 0,
		},
		RateLimit: RateLimitConfig{
			Enabled:          false,
			MaxLookups:       600,
			MaxLookupsPerIP:  30,
			Window:           time.Minute,
			EnableIPThrottle: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Storage: StorageConfig{
			RedisPrefix: "gb",
		},
	}
}

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	// Client
	endpoint := strings.TrimSpace(c.Client.Endpoint)
	if endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return errors.New("Client Endpoint must be an absolute http(s) URL")
		}
	}
	if strings.TrimSpace(c.Client.UserAgent) == "" {
		return errors.New("Client UserAgent must be set")
	}
	if strings.ContainsAny(c.Client.UserAgent, "\r\n") {
		return errors.New("Client UserAgent must not contain line breaks")
	}
	if c.Client.Timeout <= 0 {
		return errors.New("Client Timeout must be > 0")
	}
	if c.Client.MaxResponseBytes < 0 {
		return errors.New("Client MaxResponseBytes must be >= 0")
	}

	// Bulk
	if c.Bulk.Concurrency < 1 {
		return errors.New("Bulk Concurrency must be >= 1")
	}
	if c.Bulk.Concurrency > 64 {
		return errors.New("Bulk Concurrency must be <= 64")
	}

	// Availability
	if c.Availability.DisableFor < 0 {
		return errors.New("Availability DisableFor must be >= 0")
	}

	// RateLimit
	if c.RateLimit.Enabled {
		if c.RateLimit.Window <= 0 {
			return errors.New("RateLimit Window must be > 0")
		}
		if c.RateLimit.MaxLookups < 0 || c.RateLimit.MaxLookupsPerIP < 0 {
			return errors.New("RateLimit limits must be >= 0")
		}
		if c.RateLimit.MaxLookups == 0 && (!c.RateLimit.EnableIPThrottle || c.RateLimit.MaxLookupsPerIP == 0) {
			return errors.New("RateLimit requires MaxLookups or a per-IP limit")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Storage
	if strings.TrimSpace(c.Storage.RedisPrefix) == "" {
		return errors.New("Storage RedisPrefix must be set")
	}
	if strings.ContainsAny(c.Storage.RedisPrefix, " \t\r\n") {
		return errors.New("Storage RedisPrefix must not contain whitespace")
	}

	return nil
}

// requiresRedis reports whether any enabled feature stores state in Redis.
func (c *Config) requiresRedis() bool {
	return c.RateLimit.Enabled || c.Availability.Shared
}
