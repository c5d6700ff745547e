package benchmark

import (
	"context"
	"crypto/rand"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/relog-go/internal/kvstore"
	"github.com/yndnr/relog-go/internal/telemetry/logger"
	"github.com/yndnr/relog-go/pkg/crypto/adaptive"
)

// EntryCounts defines the store sizes for recovery and snapshot benchmarks.
var EntryCounts = []int{1000, 10000, 50000}

// ValueSizes defines the value sizes for write benchmarks.
var ValueSizes = []int{64, 1024, 16 * 1024}

// openStore opens a store in a fresh directory with automatic snapshots
// disabled.
func openStore(b *testing.B, dir string, sync bool, cipher adaptive.Cipher) *kvstore.Store {
	b.Helper()
	cfg := kvstore.DefaultConfig(dir)
	cfg.SyncWrites = sync
	cfg.Cipher = cipher
	cfg.Policy = kvstore.SnapshotPolicy{}
	cfg.Logger = logger.Discard()
	s, err := kvstore.Open(cfg)
	if err != nil {
		b.Fatalf("open store: %v", err)
	}
	return s
}

// prefill writes count entries with values of size bytes.
func prefill(b *testing.B, s *kvstore.Store, count, size int) {
	b.Helper()
	ctx := context.Background()
	value := randomBytes(size)
	for i := 0; i < count; i++ {
		if err := s.Put(ctx, keyFor(i), value); err != nil {
			b.Fatalf("prefill: %v", err)
		}
	}
}

func keyFor(i int) string {
	return fmt.Sprintf("bench/key-%08d", i)
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	rand.Read(b)
	return b
}

func newCipher(b *testing.B) adaptive.Cipher {
	b.Helper()
	c, err := adaptive.New(randomBytes(adaptive.KeySize))
	if err != nil {
		b.Fatalf("new cipher: %v", err)
	}
	return c
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

func sizeLabel(size int) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%dMB", size/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%dKB", size/1024)
	default:
		return fmt.Sprintf("%dB", size)
	}
}
