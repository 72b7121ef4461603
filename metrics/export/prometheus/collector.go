package prometheus

import (
	"net/http"

	goBreach "github.com/MrEthical07/goBreach"
	"github.com/MrEthical07/goBreach/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	auditDroppedName = "gobreach_audit_dropped_total"
	auditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

// MetricsSource is what the collector reads. *goBreach.Engine implements it.
type MetricsSource interface {
	MetricsSnapshot() goBreach.MetricsSnapshot
	AuditDropped() uint64
}

// Collector adapts engine counters to a client_golang registry. Values are
// read from a fresh snapshot on each Collect.
type Collector struct {
	source     MetricsSource
	counters   []*prometheus.Desc
	histograms []*prometheus.Desc
	dropped    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector over engine.
func NewCollector(engine *goBreach.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource returns a collector over any value exposing a
// snapshot and the audit drop count.
func NewCollectorFromSource(source MetricsSource) *Collector {
	c := &Collector{
		source:  source,
		dropped: prometheus.NewDesc(auditDroppedName, auditDroppedHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, prometheus.NewDesc(def.Name, def.Help, nil, nil))
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, prometheus.NewDesc(def.Name, def.Help, nil, nil))
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d
	}
	for _, d := range c.histograms {
		ch <- d
	}
	ch <- c.dropped
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()
	for i, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(c.counters[i], prometheus.CounterValue, float64(snapshot.Counters[def.ID]))
	}

	for i, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for j, upper := range internaldefs.HistogramUpperBounds {
			buckets[upper] = cumulative[j]
		}
		count := cumulative[len(cumulative)-1]
		ch <- prometheus.MustNewConstHistogram(c.histograms[i], count, 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.source.AuditDropped()))
}

// NewRegistry returns a private registry holding only a collector over source.
func NewRegistry(source MetricsSource) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollectorFromSource(source))
	return reg
}

// Handler serves source through promhttp from a private registry.
func Handler(source MetricsSource) http.Handler {
	return promhttp.HandlerFor(NewRegistry(source), promhttp.HandlerOpts{})
}
