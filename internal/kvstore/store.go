// Package kvstore is a durable in-memory key/value store built on the
// journal.
//
// Every Put and Delete is appended to the journal before it is applied to
// memory, under one lock, so the journal order is the apply order. The
// whole key space is written out as a snapshot according to a
// SnapshotPolicy, which also truncates the log.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/relog-go/internal/storage/journal"
	"github.com/yndnr/relog-go/internal/telemetry/metric"
	"github.com/yndnr/relog-go/pkg/cmap"
	"github.com/yndnr/relog-go/pkg/crypto/adaptive"
)

// Limits on a single entry.
const (
	MaxKeySize   = 4 << 10
	MaxValueSize = 16 << 20

	maxEntrySize = MaxKeySize + MaxValueSize + 32
)

var (
	ErrEmptyKey      = errors.New("kvstore: empty key")
	ErrKeyTooLarge   = errors.New("kvstore: key too large")
	ErrValueTooLarge = errors.New("kvstore: value too large")
	ErrClosed        = errors.New("kvstore: store closed")
)

// Config configures a Store.
type Config struct {
	// Dir is the journal directory.
	Dir string

	// SyncWrites makes every Put and Delete durable before it returns.
	SyncWrites bool

	// Cipher, when set, seals snapshots and logged mutations.
	Cipher adaptive.Cipher

	// Policy controls automatic snapshots.
	Policy SnapshotPolicy

	// Shards is the in-memory map's shard count.
	Shards int

	Logger  *slog.Logger
	Metrics *metric.Journal
}

// DefaultConfig returns a config for dir with the default policy.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:        dir,
		SyncWrites: true,
		Policy:     DefaultSnapshotPolicy(),
		Shards:     cmap.DefaultShardCount,
		Logger:     slog.Default(),
	}
}

// Store is the key/value store.
type Store struct {
	cfg     Config
	logger  *slog.Logger
	data    *cmap.Map[[]byte]
	log     *journal.Locked[Mutation]
	limiter *rate.Limiter

	pending      atomic.Int64 // updates since the last snapshot
	lastSnapshot atomic.Int64 // unix nanos
	closed       atomic.Bool

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// Open opens or creates the store in cfg.Dir and recovers its content. A
// fresh directory gets its first snapshot immediately so that updates have a
// log to go to.
func Open(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("kvstore: dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}

	data := cmap.New[[]byte](cmap.WithShards(cfg.Shards))
	l, err := journal.Open[Mutation](cfg.Dir, newHandler(data, cfg.Cipher),
		journal.WithLogger(cfg.Logger),
		journal.WithMetrics(cfg.Metrics))
	if err != nil {
		return nil, fmt.Errorf("kvstore: open journal: %w", err)
	}

	s := &Store{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "kvstore"),
		data:    data,
		log:     journal.NewLocked(l),
		limiter: cfg.Policy.limiter(),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	start := time.Now()
	if l.Version() == 0 {
		err = s.log.Snapshot()
	} else {
		err = s.log.Recover()
	}
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("kvstore: recover: %w", err)
	}
	s.lastSnapshot.Store(time.Now().UnixNano())

	s.logger.Info("kvstore opened",
		"dir", cfg.Dir,
		"generation", s.log.Version(),
		"entries", data.Len(),
		"sealed", cfg.Cipher != nil,
		"elapsed", time.Since(start))

	go s.backgroundLoop()
	return s, nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, bool) {
	v, ok := s.data.Get(key)
	if !ok {
		return nil, false
	}
	return append([]byte{}, v...), true
}

// Len returns the number of keys.
func (s *Store) Len() int {
	return s.data.Len()
}

// Keys returns every key in ascending order.
func (s *Store) Keys() []string {
	return s.data.Keys()
}

// Put stores value under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if len(value) > MaxValueSize {
		return fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(value))
	}
	return s.apply(ctx, Mutation{Op: OpPut, Key: key, Value: append([]byte{}, value...)})
}

// Delete removes key and reports whether it existed. Deleting a missing key
// is not logged.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	var existed bool
	err := s.write(ctx, func(l *journal.Log[Mutation]) error {
		if !s.data.Has(key) {
			return nil
		}
		if err := l.Update(Mutation{Op: OpDelete, Key: key}, s.cfg.SyncWrites); err != nil {
			return err
		}
		existed = s.data.Delete(key)
		return nil
	})
	if err != nil || !existed {
		return false, err
	}
	s.afterWrite()
	return true, nil
}

func (s *Store) apply(ctx context.Context, m Mutation) error {
	err := s.write(ctx, func(l *journal.Log[Mutation]) error {
		if err := l.Update(m, s.cfg.SyncWrites); err != nil {
			return err
		}
		s.data.Set(m.Key, m.Value)
		return nil
	})
	if err != nil {
		return err
	}
	s.afterWrite()
	return nil
}

func (s *Store) write(ctx context.Context, fn func(*journal.Log[Mutation]) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.log.Do(fn); err != nil {
		return fmt.Errorf("kvstore: write: %w", err)
	}
	return nil
}

func (s *Store) afterWrite() {
	pending := s.pending.Add(1)
	if !s.cfg.Policy.due(pending, s.log.LogSize()) {
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return
	}
	if err := s.snapshot("policy"); err != nil {
		s.logger.Error("policy snapshot failed", "error", err)
	}
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(key) > MaxKeySize {
		return fmt.Errorf("%w: %d bytes", ErrKeyTooLarge, len(key))
	}
	return nil
}

// Snapshot writes the current key space as a new generation.
func (s *Store) Snapshot(ctx context.Context) (Status, error) {
	if s.closed.Load() {
		return Status{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if err := s.snapshot("manual"); err != nil {
		return Status{}, err
	}
	return s.Status(), nil
}

func (s *Store) snapshot(reason string) error {
	start := time.Now()
	var taken int64
	err := s.log.Do(func(l *journal.Log[Mutation]) error {
		taken = s.pending.Load()
		return l.Snapshot()
	})
	if err != nil {
		return fmt.Errorf("kvstore: snapshot: %w", err)
	}
	s.pending.Add(-taken)
	s.lastSnapshot.Store(time.Now().UnixNano())
	s.logger.Info("kvstore snapshot",
		"reason", reason,
		"generation", s.log.Version(),
		"entries", s.data.Len(),
		"elapsed", time.Since(start))
	return nil
}

// Status describes the store for admin endpoints.
type Status struct {
	Dir           string        `json:"dir"`
	Generation    int32         `json:"generation"`
	Entries       int           `json:"entries"`
	SnapshotBytes int64         `json:"snapshot_bytes"`
	LogBytes      int64         `json:"log_bytes"`
	Pending       int64         `json:"pending_updates"`
	LastSnapshot  time.Time     `json:"last_snapshot"`
	Sealed        bool          `json:"sealed"`
	Journal       journal.Stats `json:"journal"`
}

// Status returns the current status.
func (s *Store) Status() Status {
	var st Status
	s.log.Do(func(l *journal.Log[Mutation]) error {
		st = Status{
			Dir:           l.Dir(),
			Generation:    l.Version(),
			SnapshotBytes: l.SnapshotSize(),
			LogBytes:      l.LogSize(),
			Journal:       l.Stats(),
		}
		return nil
	})
	st.Entries = s.data.Len()
	st.Pending = s.pending.Load()
	st.LastSnapshot = time.Unix(0, s.lastSnapshot.Load()).UTC()
	st.Sealed = s.cfg.Cipher != nil
	return st
}

// StoreStats implements metric.StatsSource.
func (s *Store) StoreStats() metric.StoreStats {
	st := s.Status()
	return metric.StoreStats{
		Entries:      st.Entries,
		Generation:   st.Generation,
		LogBytes:     st.LogBytes,
		SnapshotSize: st.SnapshotBytes,
		Pending:      st.Pending,
	}
}

// backgroundLoop takes interval snapshots while there are pending updates.
func (s *Store) backgroundLoop() {
	defer close(s.doneCh)
	if s.cfg.Policy.Interval <= 0 {
		<-s.stopCh
		return
	}

	ticker := time.NewTicker(s.cfg.Policy.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.pending.Load() == 0 {
				continue
			}
			if err := s.snapshot("interval"); err != nil {
				s.logger.Error("interval snapshot failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the background loop and closes the journal. It is safe to
// call more than once.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh
		err = s.log.Close()
		s.logger.Info("kvstore closed", "dir", s.cfg.Dir)
	})
	return err
}

// Destroy closes the store and deletes its journal directory.
func (s *Store) Destroy() error {
	closeErr := s.Close()
	if err := s.log.Destroy(); err != nil {
		return err
	}
	s.data.Clear()
	return closeErr
}
