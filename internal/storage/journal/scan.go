package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Record describes one framed update inside a log segment.
type Record struct {
	Index  int   // position in the segment, starting at 0
	Offset int64 // offset of the length prefix
	Length int64 // payload length
}

// readFormat inspects the head of a log segment and returns its format and
// the offset of the first record.
func readFormat(r io.ReaderAt, size int64, path string) (uint32, int64, error) {
	var b [HeaderSize]byte
	if _, err := r.ReadAt(b[:intBytes], 0); err != nil {
		return 0, 0, fmt.Errorf("journal: read log header: %w", err)
	}
	if binary.BigEndian.Uint32(b[:intBytes]) != LogMagic {
		// Legacy segment: no header, the first word is already a length.
		return FormatUnpadded, 0, nil
	}
	if size < HeaderSize {
		return 0, 0, logicalError("recover", path, fmt.Errorf("%w: truncated header", ErrBadFormat))
	}
	if _, err := r.ReadAt(b[intBytes:], intBytes); err != nil {
		return 0, 0, fmt.Errorf("journal: read log header: %w", err)
	}
	format := binary.BigEndian.Uint32(b[intBytes:])
	if format != FormatPadded {
		return 0, 0, logicalError("recover", path, fmt.Errorf("%w: format id %d", ErrBadFormat, format))
	}
	return FormatPadded, HeaderSize, nil
}

// readRecords walks the records of a segment starting at pos and calls fn
// with a reader bounded to each payload. It stops at the zero-length
// sentinel, at the end of the data, or at a record whose payload is not fully
// present (truncated). end is the offset where the next record belongs.
func readRecords(r io.ReaderAt, format uint32, pos, size int64, path string, fn func(Record, io.Reader) error) (end int64, count int, truncated bool, err error) {
	var lenBuf [intBytes]byte
	for {
		if size-pos < intBytes {
			// A partial length prefix is a torn append too.
			return pos, count, size > pos, nil
		}
		if _, err := r.ReadAt(lenBuf[:], pos); err != nil {
			return pos, count, false, fmt.Errorf("journal: read record length: %w", err)
		}
		length := int64(int32(binary.BigEndian.Uint32(lenBuf[:])))
		if length == 0 {
			return pos, count, false, nil
		}
		if length < 0 {
			return pos, count, false, logicalError("recover", path,
				fmt.Errorf("%w: %d at offset %d", ErrBadRecord, length, pos))
		}

		body := pos + intBytes
		if size-body < length {
			return pos, count, true, nil
		}

		rec := Record{Index: count, Offset: pos, Length: length}
		lr := NewLimitedReader(io.NewSectionReader(r, body, length), length)
		if fn != nil {
			if err := fn(rec, lr); err != nil {
				if lr.Err() != nil {
					return pos, count, false, fmt.Errorf("journal: read record: %w", lr.Err())
				}
				return pos, count, false, err
			}
		}
		// Whatever the handler left unread is skipped: the prefix is authoritative.
		lr.Close()

		pos = body + length
		if format == FormatPadded {
			pos += pad(pos)
		}
		count++
	}
}

type generationFile struct {
	name    string
	version int32
}

// listGenerations returns the snapshot and log files found in dir.
func listGenerations(dir string) []generationFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []generationFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if v, ok := parseGeneration(e.Name()); ok {
			out = append(out, generationFile{name: e.Name(), version: v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].version != out[j].version {
			return out[i].version < out[j].version
		}
		return out[i].name < out[j].name
	})
	return out
}

func parseGeneration(name string) (int32, bool) {
	var rest string
	switch {
	case strings.HasPrefix(name, SnapshotPrefix):
		rest = name[len(SnapshotPrefix):]
	case strings.HasPrefix(name, LogfilePrefix):
		rest = name[len(LogfilePrefix):]
	default:
		return 0, false
	}
	v, err := strconv.ParseInt(rest, 10, 32)
	if err != nil || v < 0 {
		return 0, false
	}
	return int32(v), true
}

// ScanInfo summarizes a journal directory without modifying it.
type ScanInfo struct {
	Dir     string `json:"dir"`
	Version int32  `json:"version"`

	SnapshotFile string `json:"snapshot_file,omitempty"`
	SnapshotSize int64  `json:"snapshot_size"`

	LogFile     string `json:"log_file,omitempty"`
	LogFileSize int64  `json:"log_file_size"`
	LogMissing  bool   `json:"log_missing,omitempty"`
	Format      string `json:"format,omitempty"`

	Records       int   `json:"records"`
	RecordBytes   int64 `json:"record_bytes"`
	GoodOffset    int64 `json:"good_offset"`
	TruncatedTail bool  `json:"truncated_tail"`

	StaleFiles []string `json:"stale_files,omitempty"`
}

// Scan reads the journal in dir and reports what Recover would find. It
// never writes: no sentinel is re-established and stale files are left in
// place.
func Scan(dir string) (*ScanInfo, error) {
	return ScanRecords(dir, nil)
}

// ScanRecords is Scan with a callback for every complete record. The reader
// passed to fn is bounded to the record payload.
func ScanRecords(dir string, fn func(Record, io.Reader) error) (*ScanInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("journal: stat dir: %w", err)
	}
	version, err := readVersion(dir)
	if err != nil {
		return nil, err
	}

	info := &ScanInfo{Dir: dir, Version: version}
	for _, g := range listGenerations(dir) {
		if g.version != version {
			info.StaleFiles = append(info.StaleFiles, g.name)
		}
	}
	if version == 0 {
		return info, nil
	}

	info.SnapshotFile = snapshotName(version)
	st, err := os.Stat(filepath.Join(dir, info.SnapshotFile))
	if err != nil {
		return nil, fmt.Errorf("journal: stat snapshot: %w", err)
	}
	info.SnapshotSize = st.Size()

	info.LogFile = logfileName(version)
	path := filepath.Join(dir, info.LogFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			info.LogMissing = true
			return info, nil
		}
		return nil, fmt.Errorf("journal: open log: %w", err)
	}
	defer f.Close()

	st, err = f.Stat()
	if err != nil {
		return nil, fmt.Errorf("journal: stat log: %w", err)
	}
	info.LogFileSize = st.Size()
	if info.LogFileSize < intBytes {
		info.Format = FormatName(FormatPadded)
		info.TruncatedTail = info.LogFileSize > 0
		return info, nil
	}

	format, start, err := readFormat(f, info.LogFileSize, path)
	if err != nil {
		return nil, err
	}
	info.Format = FormatName(format)

	end, count, truncated, err := readRecords(f, format, start, info.LogFileSize, path, func(rec Record, r io.Reader) error {
		info.RecordBytes += rec.Length
		if fn == nil {
			return nil
		}
		return fn(rec, r)
	})
	if err != nil {
		return nil, err
	}
	info.Records = count
	info.GoodOffset = end
	info.TruncatedTail = truncated
	return info, nil
}
