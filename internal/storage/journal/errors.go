package journal

import (
	"errors"
	"fmt"
)

// ErrCorrupt is matched by every logical error the journal raises, so callers
// can tell a damaged or misused journal apart from an environmental I/O error:
//
//	if errors.Is(err, journal.ErrCorrupt) { ... }
var ErrCorrupt = errors.New("journal: corrupt")

// Logical error causes. Each is wrapped in a *LogError and therefore also
// matches ErrCorrupt.
var (
	ErrBadVersion     = errors.New("journal: invalid version marker")
	ErrBadFormat      = errors.New("journal: unrecognized log format")
	ErrBadRecord      = errors.New("journal: invalid record length")
	ErrRecordTooLarge = errors.New("journal: maximum record length exceeded")
	ErrBoundExceeded  = errors.New("journal: record boundary exceeded")
	ErrShortRecord    = errors.New("journal: record shorter than declared length")
	ErrNotRecovered   = errors.New("journal: log not open, recover first")
	ErrClosed         = errors.New("journal: log closed")
	ErrHandler        = errors.New("journal: handler failed")
)

// LogError is the journal's logical error kind. It optionally carries the
// underlying cause, which is usually a handler error or one of the sentinels
// above.
type LogError struct {
	Op   string // operation, e.g. "recover", "update"
	Path string // file involved, if any
	Err  error
}

func (e *LogError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("journal: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("journal: %s: %v", e.Op, e.Err)
}

func (e *LogError) Unwrap() error {
	return e.Err
}

// Is reports ErrCorrupt for every LogError.
func (e *LogError) Is(target error) bool {
	return target == ErrCorrupt
}

func logicalError(op, path string, err error) error {
	return &LogError{Op: op, Path: path, Err: err}
}

// handlerError wraps an application error raised inside a Handler callback.
// Errors that are already logical (for example a bound violation surfaced
// through the handler) keep their identity.
func handlerError(op, path string, err error) error {
	var le *LogError
	if errors.As(err, &le) {
		return &LogError{Op: op, Path: path, Err: le.Err}
	}
	return &LogError{Op: op, Path: path, Err: fmt.Errorf("%w: %w", ErrHandler, err)}
}

// IsCorrupt reports whether err is a logical journal error.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
