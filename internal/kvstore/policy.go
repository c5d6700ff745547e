package kvstore

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// SnapshotPolicy decides when the store snapshots on its own.
//
// After each write a snapshot is due when the log has grown to MaxLogBytes or
// EveryUpdates writes happened since the last one; MinInterval rate-limits
// those write-triggered snapshots. Independently, a snapshot is taken every
// Interval if anything was written. Zero disables the respective trigger.
type SnapshotPolicy struct {
	Interval     time.Duration
	MaxLogBytes  int64
	EveryUpdates int64
	MinInterval  time.Duration
}

// DefaultSnapshotPolicy snapshots hourly or once the log reaches 64 MiB, at
// most once every 10 seconds.
func DefaultSnapshotPolicy() SnapshotPolicy {
	return SnapshotPolicy{
		Interval:    time.Hour,
		MaxLogBytes: 64 << 20,
		MinInterval: 10 * time.Second,
	}
}

// Validate rejects negative settings.
func (p SnapshotPolicy) Validate() error {
	switch {
	case p.Interval < 0:
		return fmt.Errorf("kvstore: snapshot interval must not be negative")
	case p.MaxLogBytes < 0:
		return fmt.Errorf("kvstore: snapshot max log bytes must not be negative")
	case p.EveryUpdates < 0:
		return fmt.Errorf("kvstore: snapshot every updates must not be negative")
	case p.MinInterval < 0:
		return fmt.Errorf("kvstore: snapshot min interval must not be negative")
	}
	return nil
}

func (p SnapshotPolicy) due(pending, logBytes int64) bool {
	if p.MaxLogBytes > 0 && logBytes >= p.MaxLogBytes {
		return true
	}
	return p.EveryUpdates > 0 && pending >= p.EveryUpdates
}

// limiter returns nil when write-triggered snapshots are not throttled.
func (p SnapshotPolicy) limiter() *rate.Limiter {
	if p.MinInterval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(p.MinInterval), 1)
}
