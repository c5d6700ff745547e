package kvstore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/relog-go/internal/storage/codec"
	"github.com/yndnr/relog-go/internal/storage/journal"
	"github.com/yndnr/relog-go/pkg/crypto/adaptive"
)

// testConfig disables every automatic snapshot trigger.
func testConfig(dir string) Config {
	cfg := DefaultConfig(dir)
	cfg.Policy = SnapshotPolicy{}
	return cfg
}

func openStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func mustPut(t *testing.T, s *Store, kv ...string) {
	t.Helper()
	for i := 0; i+1 < len(kv); i += 2 {
		if err := s.Put(context.Background(), kv[i], []byte(kv[i+1])); err != nil {
			t.Fatalf("Put(%q): %v", kv[i], err)
		}
	}
}

func dump(s *Store) map[string]string {
	out := make(map[string]string)
	for _, k := range s.Keys() {
		v, _ := s.Get(k)
		out[k] = string(v)
	}
	return out
}

func TestOpen_Fresh(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kv")
	s := openStore(t, testConfig(dir))
	defer s.Close()

	st := s.Status()
	if st.Generation != 1 {
		t.Errorf("Generation = %d, want 1", st.Generation)
	}
	if st.Entries != 0 || st.LogBytes != journal.HeaderSize {
		t.Errorf("unexpected status %+v", st)
	}
	if _, err := os.Stat(filepath.Join(dir, journal.VersionFile)); err != nil {
		t.Errorf("version marker missing: %v", err)
	}
}

func TestOpen_RequiresDir(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestPutGetDelete(t *testing.T) {
	s := openStore(t, testConfig(t.TempDir()))
	defer s.Close()
	ctx := context.Background()

	mustPut(t, s, "a", "1", "b", "2")
	if v, ok := s.Get("a"); !ok || string(v) != "1" {
		t.Fatalf("Get(a) = (%q, %v)", v, ok)
	}

	existed, err := s.Delete(ctx, "a")
	if err != nil || !existed {
		t.Fatalf("Delete(a) = (%v, %v), want (true, nil)", existed, err)
	}
	existed, err = s.Delete(ctx, "missing")
	if err != nil || existed {
		t.Fatalf("Delete(missing) = (%v, %v), want (false, nil)", existed, err)
	}
	if _, ok := s.Get("a"); ok {
		t.Fatal("a still present")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	// Returned values are copies.
	v, _ := s.Get("b")
	v[0] = 'X'
	if v2, _ := s.Get("b"); string(v2) != "2" {
		t.Fatal("Get exposed internal storage")
	}
}

func TestPut_Validation(t *testing.T) {
	s := openStore(t, testConfig(t.TempDir()))
	defer s.Close()
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value []byte
		want  error
	}{
		{"empty key", "", []byte("v"), ErrEmptyKey},
		{"key too large", strings.Repeat("k", MaxKeySize+1), nil, ErrKeyTooLarge},
		{"value too large", "k", make([]byte, MaxValueSize+1), ErrValueTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Put(ctx, tt.key, tt.value); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.Put(cancelled, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled ctx: err = %v", err)
	}
}

func TestRecovery(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := openStore(t, testConfig(dir))
	mustPut(t, s, "a", "1", "b", "2", "c", "3")
	if _, err := s.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	mustPut(t, s, "b", "20", "d", "")
	s.Delete(ctx, "c")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2 := openStore(t, testConfig(dir))
	defer s2.Close()

	want := map[string]string{"a": "1", "b": "20", "d": ""}
	if diff := cmp.Diff(want, dump(s2)); diff != "" {
		t.Fatalf("recovered state mismatch (-want +got):\n%s", diff)
	}
	st := s2.Status()
	if st.Generation != 2 {
		t.Errorf("Generation = %d, want 2", st.Generation)
	}
	if st.Journal.Replayed != 3 {
		t.Errorf("Replayed = %d, want 3", st.Journal.Replayed)
	}
}

func TestRecovery_UnsyncedWrites(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.SyncWrites = false

	s := openStore(t, cfg)
	mustPut(t, s, "x", "1")
	s.Close()

	s2 := openStore(t, cfg)
	defer s2.Close()
	if v, ok := s2.Get("x"); !ok || string(v) != "1" {
		t.Fatalf("Get(x) = (%q, %v)", v, ok)
	}
}

func TestSealed(t *testing.T) {
	dir := t.TempDir()
	key := bytes.Repeat([]byte{3}, adaptive.KeySize)
	c, _ := adaptive.New(key)

	cfg := testConfig(dir)
	cfg.Cipher = c
	s := openStore(t, cfg)
	mustPut(t, s, "secret-key", "secret-value")
	if _, err := s.Snapshot(context.Background()); err != nil {
		t.Fatal(err)
	}
	mustPut(t, s, "later-key", "later-value")
	s.Close()

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		b, _ := os.ReadFile(filepath.Join(dir, e.Name()))
		if bytes.Contains(b, []byte("secret")) || bytes.Contains(b, []byte("later")) {
			t.Fatalf("plaintext found in %s", e.Name())
		}
	}

	s2 := openStore(t, cfg)
	if got := dump(s2); got["secret-key"] != "secret-value" || got["later-key"] != "later-value" {
		t.Fatalf("recovered %v", got)
	}
	s2.Close()

	wrong, _ := adaptive.New(bytes.Repeat([]byte{4}, adaptive.KeySize))
	cfg.Cipher = wrong
	_, err := Open(cfg)
	if !errors.Is(err, codec.ErrOpen) || !journal.IsCorrupt(err) {
		t.Fatalf("Open with wrong key: err = %v, want codec.ErrOpen", err)
	}
}

func TestPlainPayloadsAreChecked(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, testConfig(dir))
	mustPut(t, s, "key", "value")
	s.Close()

	path := filepath.Join(dir, "Logfile.1")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	i := bytes.Index(b, []byte("value"))
	if i < 0 {
		t.Fatal("value not found in log")
	}
	b[i] ^= 0x20
	os.WriteFile(path, b, 0o600)

	_, err = Open(testConfig(dir))
	if !errors.Is(err, codec.ErrChecksum) {
		t.Fatalf("err = %v, want codec.ErrChecksum", err)
	}
}

func TestPolicy_EveryUpdates(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Policy.EveryUpdates = 3
	s := openStore(t, cfg)
	defer s.Close()

	mustPut(t, s, "a", "1", "b", "2")
	if g := s.Status().Generation; g != 1 {
		t.Fatalf("Generation = %d after 2 writes, want 1", g)
	}
	mustPut(t, s, "c", "3")
	st := s.Status()
	if st.Generation != 2 || st.Pending != 0 || st.LogBytes != journal.HeaderSize {
		t.Fatalf("after 3 writes: %+v", st)
	}
}

func TestPolicy_MaxLogBytes(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Policy.MaxLogBytes = 256
	s := openStore(t, cfg)
	defer s.Close()

	for i := 0; i < 20; i++ {
		mustPut(t, s, "key", strings.Repeat("v", 40))
	}
	if s.Status().Generation < 2 {
		t.Fatal("log size trigger never fired")
	}
	if s.Status().LogBytes >= 256 {
		t.Fatalf("LogBytes = %d, want below trigger", s.Status().LogBytes)
	}
}

func TestPolicy_MinIntervalThrottles(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Policy.EveryUpdates = 1
	cfg.Policy.MinInterval = time.Hour
	s := openStore(t, cfg)
	defer s.Close()

	mustPut(t, s, "a", "1", "b", "2", "c", "3", "d", "4")
	st := s.Status()
	if st.Generation != 2 {
		t.Fatalf("Generation = %d, want 2 (one snapshot allowed per interval)", st.Generation)
	}
	if st.Pending != 3 {
		t.Fatalf("Pending = %d, want 3", st.Pending)
	}
}

func TestPolicy_Interval(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Policy.Interval = 10 * time.Millisecond
	s := openStore(t, cfg)
	defer s.Close()

	mustPut(t, s, "a", "1")
	deadline := time.Now().Add(5 * time.Second)
	for s.Status().Generation < 2 {
		if time.Now().After(deadline) {
			t.Fatal("interval snapshot not taken")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPolicy_Validate(t *testing.T) {
	bad := []SnapshotPolicy{
		{Interval: -1},
		{MaxLogBytes: -1},
		{EveryUpdates: -1},
		{MinInterval: -1},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", p)
		}
	}
	if err := DefaultSnapshotPolicy().Validate(); err != nil {
		t.Errorf("default policy invalid: %v", err)
	}

	cfg := testConfig(t.TempDir())
	cfg.Policy.Interval = -time.Second
	if _, err := Open(cfg); err == nil {
		t.Error("Open accepted an invalid policy")
	}
}

func TestPolicy_Due(t *testing.T) {
	p := SnapshotPolicy{MaxLogBytes: 100, EveryUpdates: 10}
	tests := []struct {
		pending, logBytes int64
		want              bool
	}{
		{0, 0, false},
		{9, 99, false},
		{10, 0, true},
		{0, 100, true},
	}
	for _, tt := range tests {
		if got := p.due(tt.pending, tt.logBytes); got != tt.want {
			t.Errorf("due(%d, %d) = %v, want %v", tt.pending, tt.logBytes, got, tt.want)
		}
	}
	if (SnapshotPolicy{}).due(1000, 1<<30) {
		t.Error("zero policy should never be due")
	}
}

func TestClose(t *testing.T) {
	s := openStore(t, testConfig(t.TempDir()))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := s.Put(context.Background(), "a", []byte("1")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Put after Close: %v, want ErrClosed", err)
	}
	if _, err := s.Snapshot(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Snapshot after Close: %v, want ErrClosed", err)
	}
}

func TestDestroy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kv")
	s := openStore(t, testConfig(dir))
	mustPut(t, s, "a", "1")

	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("dir still exists: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d after Destroy", s.Len())
	}
}

func TestStoreStats(t *testing.T) {
	s := openStore(t, testConfig(t.TempDir()))
	defer s.Close()
	mustPut(t, s, "a", "1", "b", "2")

	st := s.StoreStats()
	if st.Entries != 2 || st.Pending != 2 || st.Generation != 1 {
		t.Fatalf("StoreStats = %+v", st)
	}
	if st.LogBytes <= journal.HeaderSize {
		t.Fatalf("LogBytes = %d", st.LogBytes)
	}
}
