// Package journal implements a crash-recoverable snapshot + write-ahead log.
//
// A journal directory holds one current generation: a snapshot of the
// complete application state (Snapshot.<n>) and an append-only log of the
// updates applied since that snapshot (Logfile.<n>). A small version marker
// (Version_Number) names the current generation; it is written last and read
// first, so a crash at any point leaves either the old or the new generation
// current.
//
// Log segment layout (padded format):
//
//	[magic u32 = 0xF2ECEFE7][format u32 = 1]
//	{ [len u32][payload len bytes][0-3 zero pad] }*
//	[len u32 = 0]   <- sentinel, overwritten by the next Update
//
// Legacy segments without the header and padding are still readable.
//
// A Log is a single-writer primitive and performs no locking. Callers must
// serialize Recover, Update, Snapshot and Close themselves, or wrap the log in
// a Locked.
package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/relog-go/internal/telemetry/metric"
)

type state uint8

const (
	stateInitialized state = iota
	stateReady
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateInitialized:
		return "initialized"
	case stateReady:
		return "ready"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stats are cumulative counters for one Log instance.
type Stats struct {
	Updates        int64 `json:"updates"`
	UpdateBytes    int64 `json:"update_bytes"`
	Snapshots      int64 `json:"snapshots"`
	Replayed       int64 `json:"replayed"`
	TruncatedTails int64 `json:"truncated_tails"`
	StaleRemovals  int64 `json:"stale_removal_failures"` // stale generation files that could not be removed
}

type options struct {
	logger   *slog.Logger
	metrics  *metric.Journal
	fileMode fs.FileMode
}

// Option configures a Log.
type Option func(*options)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics reports journal activity to m.
func WithMetrics(m *metric.Journal) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithFileMode sets the permission bits of files the journal creates.
func WithFileMode(mode fs.FileMode) Option {
	return func(o *options) {
		if mode != 0 {
			o.fileMode = mode
		}
	}
}

// Log coordinates one journal directory.
type Log[U any] struct {
	dir      string
	handler  Handler[U]
	logger   *slog.Logger
	metrics  *metric.Journal
	fileMode fs.FileMode

	// maxRecord bounds a single encoded update.
	maxRecord int64

	state        state
	version      int32
	log          *os.File // current segment, nil until Recover or Snapshot
	format       uint32
	logEnd       int64 // offset of the zero-length sentinel
	snapshotSize int64
	stats        Stats
}

// Open prepares the journal in dir, creating the directory if needed, and
// reads the current generation from the version marker. It does not replay
// anything: call Recover next when Version() > 0, or Snapshot to establish
// the first checkpoint when Version() == 0.
func Open[U any](dir string, h Handler[U], opts ...Option) (*Log[U], error) {
	if dir == "" {
		return nil, fmt.Errorf("journal: dir is required")
	}
	if h == nil {
		return nil, fmt.Errorf("journal: handler is required")
	}

	o := options{
		logger:   slog.Default(),
		fileMode: DefaultFileMode,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return nil, fmt.Errorf("journal: create dir: %w", err)
	}

	version, err := readVersion(dir)
	if err != nil {
		return nil, err
	}

	l := &Log[U]{
		dir:       dir,
		handler:   h,
		logger:    o.logger.With("component", "journal", "dir", dir),
		metrics:   o.metrics,
		fileMode:  o.fileMode,
		maxRecord: MaxRecordLength,
		version:   version,
		format:    FormatPadded,
	}
	l.removeStale()
	l.metrics.SetGeneration(version)

	l.logger.Debug("journal opened", "version", version)
	return l, nil
}

// Dir returns the journal directory.
func (l *Log[U]) Dir() string {
	return l.dir
}

// Version returns the current generation.
func (l *Log[U]) Version() int32 {
	return l.version
}

// Format returns the format of the open log segment.
func (l *Log[U]) Format() uint32 {
	return l.format
}

// SnapshotSize returns the size in bytes of the current snapshot.
func (l *Log[U]) SnapshotSize() int64 {
	return l.snapshotSize
}

// LogSize returns the append offset of the current log segment, header
// included.
func (l *Log[U]) LogSize() int64 {
	return l.logEnd
}

// Stats returns a copy of the log's counters.
func (l *Log[U]) Stats() Stats {
	return l.stats
}

func (l *Log[U]) path(name string) string {
	return filepath.Join(l.dir, name)
}

// Recover replays the current snapshot and every complete logged update
// through the handler, then positions the log for appending. It is a no-op at
// generation 0.
//
// A trailing record whose declared length runs past the end of the file is
// the signature of a crash mid-append; it is discarded and is not an error.
func (l *Log[U]) Recover() error {
	if l.state == stateClosed {
		return logicalError("recover", "", ErrClosed)
	}
	if l.version == 0 {
		return nil
	}
	if l.log != nil {
		// Re-recovering: drop the current handle and start over.
		l.log.Close()
		l.log = nil
		l.state = stateInitialized
	}

	start := time.Now()
	if err := l.recoverSnapshot(); err != nil {
		return err
	}
	replayed, truncated, err := l.recoverLog()
	if err != nil {
		return err
	}

	l.state = stateReady
	l.stats.Replayed += int64(replayed)
	if truncated {
		l.stats.TruncatedTails++
	}
	l.metrics.ObserveRecover(time.Since(start), replayed, truncated)
	l.metrics.SetSizes(l.snapshotSize, l.logEnd)

	l.logger.Info("journal recovered",
		"version", l.version,
		"snapshot_size", l.snapshotSize,
		"format", FormatName(l.format),
		"updates_replayed", replayed,
		"log_size", l.logEnd,
		"elapsed", time.Since(start))
	return nil
}

func (l *Log[U]) recoverSnapshot() error {
	path := l.path(snapshotName(l.version))
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("journal: open snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("journal: stat snapshot: %w", err)
	}

	lr := NewLimitedReader(bufio.NewReader(f), info.Size())
	if err := l.handler.ReadSnapshot(lr); err != nil {
		if lr.Err() != nil {
			return fmt.Errorf("journal: read snapshot: %w", lr.Err())
		}
		return handlerError("recover", path, err)
	}

	l.snapshotSize = info.Size()
	return nil
}

func (l *Log[U]) recoverLog() (replayed int, truncated bool, err error) {
	path := l.path(logfileName(l.version))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, l.fileMode)
	if err != nil {
		return 0, false, fmt.Errorf("journal: open log: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return 0, false, fmt.Errorf("journal: stat log: %w", err)
	}
	size := info.Size()

	if size < intBytes {
		// Nothing was ever appended; lay down a fresh padded segment.
		if err := l.initSegment(f); err != nil {
			return 0, false, err
		}
		l.log = f
		return 0, false, nil
	}

	format, start, err := readFormat(f, size, path)
	if err != nil {
		return 0, false, err
	}

	end, replayed, truncated, err := readRecords(f, format, start, size, path, func(_ Record, r io.Reader) error {
		u, err := l.handler.ReadUpdate(r)
		if err != nil {
			return handlerError("recover", path, err)
		}
		if err := l.handler.ApplyUpdate(u); err != nil {
			return handlerError("recover", path, err)
		}
		return nil
	})
	if err != nil {
		return replayed, truncated, err
	}
	if truncated {
		l.logger.Warn("discarded truncated trailing record",
			"log", path,
			"good_offset", end,
			"file_size", size)
	}

	// Drop the torn bytes and re-establish the sentinel at the last good
	// offset.
	if truncated {
		if err := f.Truncate(end + intBytes); err != nil {
			return replayed, truncated, fmt.Errorf("journal: truncate log: %w", err)
		}
	}
	if _, err := f.WriteAt(make([]byte, intBytes), end); err != nil {
		return replayed, truncated, fmt.Errorf("journal: write sentinel: %w", err)
	}
	if err := f.Sync(); err != nil {
		return replayed, truncated, fmt.Errorf("journal: sync log: %w", err)
	}

	l.log = f
	l.format = format
	l.logEnd = end
	return replayed, truncated, nil
}

func (l *Log[U]) initSegment(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("journal: truncate log: %w", err)
	}
	if _, err := f.WriteAt(segmentHeader(), 0); err != nil {
		return fmt.Errorf("journal: write log header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("journal: sync log: %w", err)
	}
	l.format = FormatPadded
	l.logEnd = HeaderSize
	return nil
}

// Update appends one encoded update to the current log segment. When
// forceDurable is set the record is on stable storage before Update returns.
//
// The record is published by overwriting the previous sentinel's zero length
// with the payload length, after the payload, its padding and the next
// sentinel have been written. A crash before that overwrite leaves the log
// ending at the old sentinel.
func (l *Log[U]) Update(u U, forceDurable bool) error {
	if l.state == stateClosed {
		return logicalError("update", "", ErrClosed)
	}
	if l.log == nil {
		return logicalError("update", "", ErrNotRecovered)
	}
	path := l.log.Name()

	entryStart := l.logEnd + intBytes
	bw := bufio.NewWriter(io.NewOffsetWriter(l.log, entryStart))
	lw := NewLimitedWriter(bw, l.maxRecord)
	if err := l.handler.WriteUpdate(lw, u); err != nil {
		if lw.Err() != nil {
			return fmt.Errorf("journal: write update: %w", lw.Err())
		}
		if errors.Is(err, ErrBoundExceeded) {
			return logicalError("update", path, ErrRecordTooLarge)
		}
		return handlerError("update", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("journal: write update: %w", err)
	}

	length := lw.Written()
	switch {
	case length == 0:
		// A zero length would read back as the sentinel.
		return logicalError("update", path, fmt.Errorf("%w: empty update", ErrBadRecord))
	case length > MaxRecordLength:
		return logicalError("update", path, ErrRecordTooLarge)
	}

	entryEnd := entryStart + length
	var tail int64
	if l.format == FormatPadded {
		tail = pad(entryEnd)
	}

	syncStart := time.Now()
	if _, err := l.log.WriteAt(make([]byte, tail+intBytes), entryEnd); err != nil {
		return fmt.Errorf("journal: write sentinel: %w", err)
	}
	if forceDurable {
		if err := l.log.Sync(); err != nil {
			return fmt.Errorf("journal: sync log: %w", err)
		}
	}

	var prefix [intBytes]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(length))
	if _, err := l.log.WriteAt(prefix[:], l.logEnd); err != nil {
		return fmt.Errorf("journal: write record length: %w", err)
	}
	if forceDurable {
		if err := l.log.Sync(); err != nil {
			return fmt.Errorf("journal: sync log: %w", err)
		}
		l.metrics.ObserveSync(time.Since(syncStart))
	}

	l.logEnd = entryEnd + tail
	l.stats.Updates++
	l.stats.UpdateBytes += length
	l.metrics.ObserveUpdate(length, l.logEnd)
	return nil
}

// Snapshot writes the complete application state as generation Version()+1,
// starts an empty log segment for it, durably publishes the new version
// marker and only then removes the previous generation's files.
//
// If Snapshot fails before the marker is published, the previous generation
// remains current and the log stays usable.
//
// Past generation 0 the handler must hold recovered state: Snapshot before a
// successful Recover fails with ErrNotRecovered.
func (l *Log[U]) Snapshot() error {
	if l.state == stateClosed {
		return logicalError("snapshot", "", ErrClosed)
	}
	if l.state != stateReady && l.version > 0 {
		return logicalError("snapshot", "", ErrNotRecovered)
	}

	start := time.Now()
	next := l.version + 1
	snapPath := l.path(snapshotName(next))
	logPath := l.path(logfileName(next))

	size, err := l.writeSnapshot(snapPath)
	if err != nil {
		os.Remove(snapPath)
		return err
	}

	nf, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, l.fileMode)
	if err != nil {
		os.Remove(snapPath)
		return fmt.Errorf("journal: create log: %w", err)
	}
	if _, err := nf.WriteAt(segmentHeader(), 0); err != nil {
		nf.Close()
		l.discard(snapPath, logPath)
		return fmt.Errorf("journal: write log header: %w", err)
	}
	if err := nf.Sync(); err != nil {
		nf.Close()
		l.discard(snapPath, logPath)
		return fmt.Errorf("journal: sync log: %w", err)
	}

	// Make the new directory entries durable before they become current.
	// Not every platform can sync a directory.
	_ = syncDir(l.dir)

	if err := writeVersion(l.dir, next); err != nil {
		nf.Close()
		l.discard(snapPath, logPath)
		return err
	}

	prev := l.version
	if l.log != nil {
		l.log.Close()
	}
	l.version = next
	l.log = nf
	l.format = FormatPadded
	l.logEnd = HeaderSize
	l.snapshotSize = size
	l.state = stateReady
	l.stats.Snapshots++

	// The rename of the marker must reach disk before the generation it
	// replaces goes away. Without that, Open removes the leftovers later.
	if err := syncDir(l.dir); err != nil {
		l.logger.Warn("version marker not synced, keeping previous generation",
			"version", prev,
			"error", err)
	} else if prev > 0 {
		l.removeGeneration(prev)
	}

	l.metrics.ObserveSnapshot(next, size, time.Since(start))
	l.metrics.SetSizes(size, l.logEnd)
	l.logger.Info("journal snapshot taken",
		"version", next,
		"snapshot_size", size,
		"elapsed", time.Since(start))
	return nil
}

func (l *Log[U]) writeSnapshot(path string) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, l.fileMode)
	if err != nil {
		return 0, fmt.Errorf("journal: create snapshot: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	lw := NewLimitedWriter(bw, math.MaxInt64)
	if err := l.handler.WriteSnapshot(lw); err != nil {
		if lw.Err() != nil {
			return 0, fmt.Errorf("journal: write snapshot: %w", lw.Err())
		}
		return 0, handlerError("snapshot", path, err)
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("journal: write snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("journal: sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("journal: close snapshot: %w", err)
	}
	return lw.Written(), nil
}

// discard removes files of a generation that never became current.
func (l *Log[U]) discard(paths ...string) {
	for _, p := range paths {
		os.Remove(p)
	}
}

// removeGeneration deletes a superseded generation. Failures are logged and
// counted; they never undo the generation that is already current.
func (l *Log[U]) removeGeneration(version int32) {
	for _, name := range []string{snapshotName(version), logfileName(version)} {
		err := os.Remove(l.path(name))
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		l.stats.StaleRemovals++
		l.metrics.StaleRemovalFailed()
		l.logger.Warn("failed to remove stale generation file",
			"file", name,
			"version", version,
			"error", err)
	}
}

// removeStale deletes snapshot and log files that do not belong to the
// current generation: leftovers of a crash between publishing a marker and
// cleaning up, or of a snapshot that never got published. Temporary markers
// of an interrupted publish go too.
func (l *Log[U]) removeStale() {
	var names []string
	for _, g := range listGenerations(l.dir) {
		if g.version != l.version {
			names = append(names, g.name)
		}
	}
	names = append(names, versionTemps(l.dir)...)
	for _, name := range names {
		if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("failed to remove stale journal file", "file", name, "error", err)
			continue
		}
		l.logger.Info("removed stale journal file", "file", name, "current", l.version)
	}
}

// Close releases the log segment. It is idempotent, and the Log cannot be
// used for Recover, Update or Snapshot afterwards.
func (l *Log[U]) Close() error {
	if l.state == stateClosed {
		return nil
	}
	l.state = stateClosed
	if l.log == nil {
		return nil
	}
	err := l.log.Close()
	l.log = nil
	if err != nil {
		return fmt.Errorf("journal: close log: %w", err)
	}
	return nil
}

// Destroy closes the log and removes every journal file and the directory
// itself. Removal is best effort: failures are logged, not returned.
func (l *Log[U]) Destroy() error {
	err := l.Close()
	_ = removeFiles(l.dir, l.logger)

	l.version = 0
	l.logEnd = 0
	l.snapshotSize = 0
	l.metrics.SetGeneration(0)
	l.metrics.SetSizes(0, 0)
	return err
}

// Remove deletes the journal in dir without reading its version marker, so
// it also works on a journal that Open rejects. Files that are not part of a
// journal are left alone, and the directory is removed only once empty. It
// returns the removal failures; a missing dir is not one.
func Remove(dir string, opts ...Option) error {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return removeFiles(dir, o.logger.With("component", "journal", "dir", dir))
}

func removeFiles(dir string, logger *slog.Logger) error {
	var names []string
	for _, g := range listGenerations(dir) {
		names = append(names, g.name)
	}
	names = append(names, VersionFile)
	names = append(names, versionTemps(dir)...)

	var errs []error
	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to remove journal file", "file", name, "error", err)
			errs = append(errs, err)
		}
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Debug("journal dir not removed", "error", err)
	}
	return errors.Join(errs...)
}

// syncDir is a variable so tests can fail it.
var syncDir = func(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
