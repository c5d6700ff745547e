// Package metric provides Prometheus metrics for ReLog.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, request metrics and HTTP handler
//   - journal.go: journal update/snapshot/recovery instrumentation
//   - collector.go: pull-based collector for key/value store state
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
