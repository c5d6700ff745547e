package journal

import (
	"errors"
	"io"
)

// LimitedReader reads at most one record's worth of bytes from an
// underlying reader. Unlike io.LimitedReader, running out of underlying data
// before the declared length is consumed is reported as ErrShortRecord rather
// than a plain EOF: the length prefix and the file disagree.
//
// A LimitedReader never closes the reader it wraps.
type LimitedReader struct {
	r   io.Reader
	n   int64
	err error // first environmental error from r
}

// NewLimitedReader returns a reader bounded to n bytes of r.
func NewLimitedReader(r io.Reader, n int64) *LimitedReader {
	if n < 0 {
		n = 0
	}
	return &LimitedReader{r: r, n: n}
}

// Read reads up to len(p) bytes, never crossing the record boundary. It
// returns io.EOF once the bound is exhausted.
func (lr *LimitedReader) Read(p []byte) (int, error) {
	if lr.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > lr.n {
		p = p[:lr.n]
	}
	n, err := lr.r.Read(p)
	lr.n -= int64(n)
	if err == io.EOF {
		if lr.n > 0 {
			return n, logicalError("read", "", ErrShortRecord)
		}
		// The bound and the data ended together.
		err = nil
		if n == 0 {
			err = io.EOF
		}
	} else if err != nil && lr.err == nil {
		lr.err = err
	}
	return n, err
}

// Skip discards up to n bytes. Skipping past the bound consumes what is left
// and fails with ErrBoundExceeded.
func (lr *LimitedReader) Skip(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	want := n
	if want > lr.n {
		want = lr.n
	}
	skipped, err := io.CopyN(io.Discard, lr, want)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = logicalError("skip", "", ErrShortRecord)
		}
		return skipped, err
	}
	if n > want {
		return skipped, logicalError("skip", "", ErrBoundExceeded)
	}
	return skipped, nil
}

// Remaining reports the bytes left before the record boundary.
func (lr *LimitedReader) Remaining() int64 {
	return lr.n
}

// Close marks the bound exhausted. It is idempotent.
func (lr *LimitedReader) Close() error {
	lr.n = 0
	return nil
}

// Err returns the first error reported by the underlying reader, if any.
func (lr *LimitedReader) Err() error {
	return lr.err
}

// LimitedWriter writes at most n bytes to an underlying writer. A write that
// would cross the bound writes nothing and fails with ErrBoundExceeded.
//
// A LimitedWriter never closes the writer it wraps.
type LimitedWriter struct {
	w       io.Writer
	n       int64
	written int64
	err     error // first environmental error from w
}

// NewLimitedWriter returns a writer bounded to n bytes of w.
func NewLimitedWriter(w io.Writer, n int64) *LimitedWriter {
	if n < 0 {
		n = 0
	}
	return &LimitedWriter{w: w, n: n}
}

func (lw *LimitedWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > lw.n {
		return 0, logicalError("write", "", ErrBoundExceeded)
	}
	n, err := lw.w.Write(p)
	lw.n -= int64(n)
	lw.written += int64(n)
	if err != nil && lw.err == nil {
		lw.err = err
	}
	return n, err
}

// Remaining reports how many more bytes may be written.
func (lw *LimitedWriter) Remaining() int64 {
	return lw.n
}

// Written reports how many bytes reached the underlying writer.
func (lw *LimitedWriter) Written() int64 {
	return lw.written
}

// Close marks the bound exhausted. It is idempotent.
func (lw *LimitedWriter) Close() error {
	lw.n = 0
	return nil
}

// Err returns the first error reported by the underlying writer, if any.
func (lw *LimitedWriter) Err() error {
	return lw.err
}
