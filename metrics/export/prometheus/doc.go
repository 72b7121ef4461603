// Package prometheus exposes goBreach engine metrics for Prometheus scrapes.
//
// [Collector] plugs engine snapshots into a client_golang registry, and
// [Handler] serves a private registry through promhttp. Counter names are gobreach_*_total; the histogram is
// gobreach_lookup_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
//   - Push metrics anywhere.
package prometheus
