package metric

import "github.com/prometheus/client_golang/prometheus"

// StoreStats is a point-in-time view of a key/value store.
type StoreStats struct {
	Entries      int
	Generation   int32
	LogBytes     int64
	SnapshotSize int64
	Pending      int64 // updates since the last snapshot
}

// StatsSource supplies StoreStats on every scrape.
type StatsSource interface {
	StoreStats() StoreStats
}

// StoreCollector collects key/value store state at scrape time.
type StoreCollector struct {
	src StatsSource

	entries *prometheus.Desc
	pending *prometheus.Desc
}

// NewStoreCollector creates a collector reading from src.
func NewStoreCollector(src StatsSource) *StoreCollector {
	return &StoreCollector{
		src: src,
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "kv", "entries"),
			"Number of keys held in memory.", nil, nil),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "kv", "pending_updates"),
			"Updates logged since the last snapshot.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.pending
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.StoreStats()
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Entries))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending))
}
