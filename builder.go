package goBreach

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goBreach/hibp"
	"github.com/MrEthical07/goBreach/internal/audit"
	"github.com/MrEthical07/goBreach/internal/rate"
	"github.com/MrEthical07/goBreach/internal/stores"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. A Builder is single-use: Build succeeds at
// most once.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	logger     *zap.Logger
	httpClient *http.Client
	auditSink  AuditSink

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client used by the lookup budget and the
// shared availability flag. Any go-redis client works, including
// *redis.Client and *redis.ClusterClient. The Engine never closes it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithHTTPClient overrides the HTTP client used for range requests.
// Client.Timeout from the configuration is not applied to it.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithAuditSink sets where audit events go and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithMetricsEnabled toggles the in-process counters read by MetricsSnapshot.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the lookup latency histogram. It has no
// effect while metrics are disabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil && cfg.requiresRedis() {
		if cfg.RateLimit.Enabled {
			return nil, errors.Join(ErrRedisRequired, errors.New("RateLimit requires redis client"))
		}
		return nil, errors.Join(ErrRedisRequired, errors.New("Availability Shared requires redis client"))
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Client.Timeout}
	}

	client, err := hibp.New(hibp.Options{
		Endpoint:         cfg.Client.Endpoint,
		UserAgent:        cfg.Client.UserAgent,
		Padding:          cfg.Client.Padding,
		HTTPClient:       httpClient,
		Logger:           logger,
		MaxResponseBytes: cfg.Client.MaxResponseBytes,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config: cfg,
		client: client,
		logger: logger.Named("engine"),

		customHTTP: b.httpClient != nil,
	}

	if b.redis != nil {
		engine.availStore = stores.NewAvailabilityStore(b.redis, cfg.Storage.RedisPrefix)
	}
	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			KeyPrefix:        cfg.Storage.RedisPrefix,
			MaxLookups:       cfg.RateLimit.MaxLookups,
			MaxLookupsPerIP:  cfg.RateLimit.MaxLookupsPerIP,
			Window:           cfg.RateLimit.Window,
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
		})
	}
	engine.availability = newAvailabilityGuard(cfg.Availability, engine.availStore, engine.logger)
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
