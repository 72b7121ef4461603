package internaldefs

import (
	goBreach "github.com/MrEthical07/goBreach"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goBreach.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   goBreach.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goBreach.MetricLookupSuccess, Name: "gobreach_lookup_success_total", Help: "Range lookups that produced a verdict."},
	{ID: goBreach.MetricLookupBreached, Name: "gobreach_lookup_breached_total", Help: "Verdicts reporting a breached secret."},
	{ID: goBreach.MetricLookupClean, Name: "gobreach_lookup_clean_total", Help: "Verdicts reporting a clean secret."},
	{ID: goBreach.MetricLookupUnavailable, Name: "gobreach_lookup_unavailable_total", Help: "Range lookups that failed in transport or with a non-2xx status."},
	{ID: goBreach.MetricLookupCanceled, Name: "gobreach_lookup_canceled_total", Help: "Range lookups canceled by the caller."},
	{ID: goBreach.MetricLookupRateLimited, Name: "gobreach_lookup_rate_limited_total", Help: "Lookups refused by the outbound budget."},
	{ID: goBreach.MetricPaddingDiscarded, Name: "gobreach_padding_discarded_total", Help: "Matched padding rows treated as not breached."},
	{ID: goBreach.MetricParseAnomaly, Name: "gobreach_parse_anomaly_total", Help: "Malformed rows in range responses."},
	{ID: goBreach.MetricCountUnknown, Name: "gobreach_count_unknown_total", Help: "Breached verdicts without a usable count."},
	{ID: goBreach.MetricAutomaticSkipped, Name: "gobreach_automatic_skipped_total", Help: "Automatic checks refused while disabled."},
	{ID: goBreach.MetricAvailabilityTripped, Name: "gobreach_availability_tripped_total", Help: "Times automatic checks were disabled after a failure."},
	{ID: goBreach.MetricAvailabilityReset, Name: "gobreach_availability_reset_total", Help: "Explicit re-enables of automatic checks."},
	{ID: goBreach.MetricBulkRun, Name: "gobreach_bulk_run_total", Help: "Bulk check runs."},
	{ID: goBreach.MetricBulkAborted, Name: "gobreach_bulk_aborted_total", Help: "Bulk check runs stopped by an error."},
	{ID: goBreach.MetricBulkSkippedExpired, Name: "gobreach_bulk_skipped_expired_total", Help: "Records skipped because they expired."},
	{ID: goBreach.MetricBulkSkippedIgnored, Name: "gobreach_bulk_skipped_ignored_total", Help: "Records skipped because they are ignored."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goBreach.MetricLookupLatency, Name: "gobreach_lookup_latency_seconds", Help: "Range request latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// engine bucket is the implicit +Inf.
var HistogramUpperBounds = []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// NormalizeBuckets pads or truncates raw to the engine's bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into the running totals
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
