package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Journal instruments a journal log. All methods are safe on a nil receiver,
// so the journal can report unconditionally.
type Journal struct {
	Updates         prometheus.Counter
	UpdateBytes     prometheus.Counter
	Snapshots       prometheus.Counter
	Replayed        prometheus.Counter
	TruncatedTails  prometheus.Counter
	StaleRemovals   prometheus.Counter
	Generation      prometheus.Gauge
	LogBytes        prometheus.Gauge
	SnapshotBytes   prometheus.Gauge
	SyncDuration    prometheus.Histogram
	SnapshotLatency prometheus.Histogram
	RecoverLatency  prometheus.Histogram
}

// NewJournal creates journal metrics and registers them with reg when reg is
// not nil.
func NewJournal(reg prometheus.Registerer) *Journal {
	j := &Journal{
		Updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "journal", Name: "updates_total",
			Help: "Updates appended to the journal log.",
		}),
		UpdateBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "journal", Name: "update_bytes_total",
			Help: "Payload bytes appended to the journal log.",
		}),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "journal", Name: "snapshots_total",
			Help: "Snapshots taken.",
		}),
		Replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "journal", Name: "replayed_updates_total",
			Help: "Updates replayed during recovery.",
		}),
		TruncatedTails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "journal", Name: "truncated_tails_total",
			Help: "Torn trailing records discarded during recovery.",
		}),
		StaleRemovals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "journal", Name: "stale_removal_failures_total",
			Help: "Superseded generation files that could not be removed.",
		}),
		Generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "journal", Name: "generation",
			Help: "Current journal generation.",
		}),
		LogBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "journal", Name: "log_bytes",
			Help: "Size of the current log segment.",
		}),
		SnapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "journal", Name: "snapshot_bytes",
			Help: "Size of the current snapshot.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "journal", Name: "sync_duration_seconds",
			Help:    "Time spent making a durable update stable.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		SnapshotLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "journal", Name: "snapshot_duration_seconds",
			Help:    "Time spent taking a snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
		RecoverLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "journal", Name: "recover_duration_seconds",
			Help:    "Time spent recovering the journal.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(
			j.Updates, j.UpdateBytes, j.Snapshots, j.Replayed, j.TruncatedTails,
			j.StaleRemovals, j.Generation, j.LogBytes, j.SnapshotBytes,
			j.SyncDuration, j.SnapshotLatency, j.RecoverLatency,
		)
	}
	return j
}

// ObserveUpdate records an appended update and the new log size.
func (j *Journal) ObserveUpdate(payload, logSize int64) {
	if j == nil {
		return
	}
	j.Updates.Inc()
	j.UpdateBytes.Add(float64(payload))
	j.LogBytes.Set(float64(logSize))
}

// ObserveSync records how long a durable update waited on stable storage.
func (j *Journal) ObserveSync(d time.Duration) {
	if j == nil {
		return
	}
	j.SyncDuration.Observe(d.Seconds())
}

// ObserveSnapshot records a completed snapshot.
func (j *Journal) ObserveSnapshot(generation int32, size int64, d time.Duration) {
	if j == nil {
		return
	}
	j.Snapshots.Inc()
	j.SnapshotLatency.Observe(d.Seconds())
	j.Generation.Set(float64(generation))
	j.SnapshotBytes.Set(float64(size))
}

// ObserveRecover records a completed recovery.
func (j *Journal) ObserveRecover(d time.Duration, replayed int, truncated bool) {
	if j == nil {
		return
	}
	j.RecoverLatency.Observe(d.Seconds())
	j.Replayed.Add(float64(replayed))
	if truncated {
		j.TruncatedTails.Inc()
	}
}

// StaleRemovalFailed counts a superseded file that could not be deleted.
func (j *Journal) StaleRemovalFailed() {
	if j == nil {
		return
	}
	j.StaleRemovals.Inc()
}

// SetGeneration sets the current generation gauge.
func (j *Journal) SetGeneration(generation int32) {
	if j == nil {
		return
	}
	j.Generation.Set(float64(generation))
}

// SetSizes sets the snapshot and log size gauges.
func (j *Journal) SetSizes(snapshot, log int64) {
	if j == nil {
		return
	}
	j.SnapshotBytes.Set(float64(snapshot))
	j.LogBytes.Set(float64(log))
}
