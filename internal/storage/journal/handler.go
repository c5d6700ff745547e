package journal

import "io"

// Handler is the application side of the journal. The journal never
// interprets snapshot or update bytes; it only frames them and decides where
// they live on disk. All five methods are mandatory: there is no default
// serialization of update values.
//
// Any error returned from a Handler method is reported as a logical error
// (matching ErrCorrupt and ErrHandler), except for I/O errors the journal
// itself hit on the writer or reader it handed in, which surface unchanged.
type Handler[U any] interface {
	// WriteSnapshot encodes the complete current application state to w.
	WriteSnapshot(w io.Writer) error

	// ReadSnapshot replaces the application state with the one decoded from
	// r. It is called exactly once per Recover, before any update is replayed.
	ReadSnapshot(r io.Reader) error

	// WriteUpdate encodes a single state change.
	WriteUpdate(w io.Writer, u U) error

	// ReadUpdate decodes a single state change. r is bounded to the record,
	// so reading until io.EOF yields exactly the bytes WriteUpdate produced
	// (plus nothing).
	ReadUpdate(r io.Reader) (U, error)

	// ApplyUpdate applies a decoded change to the in-memory state. During
	// Recover it is invoked in the order the updates were logged.
	ApplyUpdate(u U) error
}
