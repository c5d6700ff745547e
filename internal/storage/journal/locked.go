package journal

import "sync"

// Locked serializes every call on a Log behind a mutex, for owners that
// submit updates from more than one goroutine. The Log itself stays
// lock-free.
type Locked[U any] struct {
	mu  sync.Mutex
	log *Log[U]
}

// NewLocked wraps l. l must not be used directly afterwards.
func NewLocked[U any](l *Log[U]) *Locked[U] {
	return &Locked[U]{log: l}
}

// Do runs fn with exclusive access to the log. Use it when an update and the
// matching in-memory change must happen as one step.
func (s *Locked[U]) Do(fn func(*Log[U]) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.log)
}

func (s *Locked[U]) Recover() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Recover()
}

func (s *Locked[U]) Update(u U, forceDurable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Update(u, forceDurable)
}

func (s *Locked[U]) Snapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Snapshot()
}

func (s *Locked[U]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Close()
}

func (s *Locked[U]) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Destroy()
}

func (s *Locked[U]) Version() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Version()
}

func (s *Locked[U]) SnapshotSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.SnapshotSize()
}

func (s *Locked[U]) LogSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.LogSize()
}

func (s *Locked[U]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Stats()
}
