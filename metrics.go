package goBreach

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricLookupSuccess counts range lookups that produced a verdict.
	MetricLookupSuccess MetricID = iota
	// MetricLookupBreached counts verdicts with Breached set.
	MetricLookupBreached
	// MetricLookupClean counts verdicts without Breached.
	MetricLookupClean
	// MetricLookupUnavailable counts lookups that failed in transport.
	MetricLookupUnavailable
	// MetricLookupCanceled counts lookups aborted by the caller.
	MetricLookupCanceled
	// MetricLookupRateLimited counts lookups refused by the outbound budget.
	MetricLookupRateLimited
	// MetricPaddingDiscarded counts matched padding decoys.
	MetricPaddingDiscarded
	// MetricParseAnomaly counts malformed range rows.
	MetricParseAnomaly
	// MetricCountUnknown counts breached verdicts without a usable count.
	MetricCountUnknown
	// MetricAutomaticSkipped counts automatic checks refused while disabled.
	MetricAutomaticSkipped
	// MetricAvailabilityTripped counts transitions into the disabled state.
	MetricAvailabilityTripped
	// MetricAvailabilityReset counts explicit re-enables.
	MetricAvailabilityReset
	// MetricBulkRun counts CheckAll invocations.
	MetricBulkRun
	// MetricBulkAborted counts CheckAll runs that stopped early.
	MetricBulkAborted
	// MetricBulkSkippedExpired counts records skipped because they expired.
	MetricBulkSkippedExpired
	// MetricBulkSkippedIgnored counts records skipped because they are ignored.
	MetricBulkSkippedIgnored
	// MetricLookupLatency is the range request latency histogram.
	MetricLookupLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters plus one latency histogram.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to id.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records d in the histogram for id. Only [MetricLookupLatency] has a
// histogram; other IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricLookupLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters. Disabled metrics yield empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricLookupLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricLookupLatency].buckets[i])
		}
		s.Histograms[MetricLookupLatency] = buckets
	}

	return s
}

// Range lookups are remote calls; bucket bounds are wider than an in-process
// hot path would need.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 25:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 2500:
		return 6
	default:
		return 7
	}
}
