package goBreach

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goBreach/hibp"
	"github.com/MrEthical07/goBreach/internal/audit"
	"github.com/MrEthical07/goBreach/internal/rate"
	"github.com/MrEthical07/goBreach/internal/stores"
	"go.uber.org/zap"
)

// Engine runs breach checks with the availability guard, the optional lookup
// budget, audit, and metrics around a [hibp.Client].
//
// An Engine is safe for concurrent use. Build one with [New].
type Engine struct {
	config       Config
	client       *hibp.Client
	limiter      *rate.Limiter
	availStore   *stores.AvailabilityStore
	availability *availabilityGuard
	audit        *audit.Dispatcher
	metrics      *Metrics
	logger       *zap.Logger
	customHTTP   bool
}

const (
	triggerManual    = "manual"
	triggerAutomatic = "automatic"
	triggerBulk      = "bulk"
)

// Check looks up secret regardless of the availability guard. This is the
// path for explicit user actions.
//
// Transport failures return an error matching [ErrLookupUnavailable] and turn
// automatic checks off. A successful manual check does not turn them back on.
func (e *Engine) Check(ctx context.Context, secret []byte) (Verdict, error) {
	return e.lookup(ctx, secret, triggerManual)
}

// CheckAutomatic looks up secret on behalf of a background or save-time
// trigger. It returns [ErrAutomaticChecksDisabled] without network I/O when
// automatic checks are configured off or a previous lookup failed.
func (e *Engine) CheckAutomatic(ctx context.Context, secret []byte) (Verdict, error) {
	if e == nil || e.client == nil {
		return Verdict{}, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !e.config.Automatic.Enabled || !e.availability.enabled(ctx) {
		e.metricInc(MetricAutomaticSkipped)
		e.emitAudit(ctx, auditEventAutomaticCheckSkipped, false, ErrAutomaticChecksDisabled, nil)
		return Verdict{}, ErrAutomaticChecksDisabled
	}

	return e.lookup(ctx, secret, triggerAutomatic)
}

// AutomaticChecksEnabled reports whether CheckAutomatic would attempt a lookup.
func (e *Engine) AutomaticChecksEnabled(ctx context.Context) bool {
	if e == nil || e.availability == nil {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return e.config.Automatic.Enabled && e.availability.enabled(ctx)
}

// ResetAvailability turns automatic checks back on after a failure, locally
// and in the shared flag.
func (e *Engine) ResetAvailability(ctx context.Context) error {
	if e == nil || e.availability == nil {
		return ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	err := e.availability.reset(ctx)
	e.metricInc(MetricAvailabilityReset)
	e.emitAudit(ctx, auditEventAvailabilityReset, err == nil, err, nil)
	return err
}

func (e *Engine) lookup(ctx context.Context, secret []byte, trigger string) (Verdict, error) {
	if e == nil || e.client == nil {
		return Verdict{}, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := e.allowLookup(ctx, trigger); err != nil {
		return Verdict{}, err
	}

	start := time.Now()
	res, err := e.client.Lookup(ctx, secret)
	e.metricObserve(MetricLookupLatency, time.Since(start))

	if err != nil {
		e.lookupFailed(ctx, trigger, err)
		return Verdict{}, err
	}

	e.metricInc(MetricLookupSuccess)
	e.metricAdd(MetricParseAnomaly, uint64(res.Anomalies))
	if res.PaddingDiscarded {
		e.metricInc(MetricPaddingDiscarded)
	}

	v := res.Verdict
	if v.Breached {
		e.metricInc(MetricLookupBreached)
		if !v.CountKnown() {
			e.metricInc(MetricCountUnknown)
		}
		e.emitAudit(ctx, auditEventLookupBreached, true, nil, func() map[string]string {
			return map[string]string{
				"trigger": trigger,
				"count":   strconv.Itoa(v.Count),
			}
		})
	} else {
		e.metricInc(MetricLookupClean)
		e.emitAudit(ctx, auditEventLookupClean, true, nil, func() map[string]string {
			return map[string]string{"trigger": trigger}
		})
	}

	return v, nil
}

// allowLookup consumes one unit of the outbound budget. Limiter failures do
// not reach the range API.
func (e *Engine) allowLookup(ctx context.Context, trigger string) error {
	if e.limiter == nil {
		return nil
	}

	err := e.limiter.Allow(ctx, clientIPFromContext(ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricLookupRateLimited)
		e.emitAudit(ctx, auditEventLookupRateLimited, false, ErrLookupRateLimited, func() map[string]string {
			return map[string]string{"trigger": trigger}
		})
		return ErrLookupRateLimited
	default:
		e.logger.Warn("lookup budget unavailable", zap.Error(err))
		e.emitAudit(ctx, auditEventLookupRateLimited, false, ErrRateLimiterUnavailable, func() map[string]string {
			return map[string]string{"trigger": trigger}
		})
		return fmt.Errorf("%w: %w", ErrRateLimiterUnavailable, err)
	}
}

func (e *Engine) lookupFailed(ctx context.Context, trigger string, err error) {
	if !errors.Is(err, ErrLookupUnavailable) {
		if errors.Is(err, context.Canceled) {
			e.metricInc(MetricLookupCanceled)
			e.emitAudit(ctx, auditEventLookupCanceled, false, err, func() map[string]string {
				return map[string]string{"trigger": trigger}
			})
		}
		return
	}

	e.metricInc(MetricLookupUnavailable)
	e.emitAudit(ctx, auditEventLookupUnavailable, false, err, func() map[string]string {
		return map[string]string{"trigger": trigger}
	})

	reason := string(auditErrorCode(err))
	if e.availability.trip(ctx, reason) {
		e.metricInc(MetricAvailabilityTripped)
		e.logger.Warn("automatic breach checks disabled",
			zap.String("trigger", trigger),
			zap.Duration("disable_for", e.config.Availability.DisableFor),
			zap.Error(err),
		)
		e.emitAudit(ctx, auditEventAvailabilityTripped, true, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
	}
}

// Close flushes queued audit events. The Redis client, when supplied, is
// owned by the caller and stays open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer
// was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the current counters and histograms. A nil Engine
// returns empty maps.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the live counters for exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n uint64) {
	e.metrics.Add(id, n)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	e.metrics.Observe(id, d)
}
