package journal

import (
	"encoding/binary"
	"math"
	"strconv"
)

// On-disk names inside a journal directory.
const (
	VersionFile    = "Version_Number"
	SnapshotPrefix = "Snapshot."
	LogfilePrefix  = "Logfile."
)

// Log segment format.
const (
	// LogMagic opens every padded log segment.
	LogMagic uint32 = 0xF2ECEFE7

	// FormatUnpadded is the legacy layout: no header, records back to back.
	// It is read for compatibility but never written.
	FormatUnpadded uint32 = 0

	// FormatPadded aligns the end of every record to a 4-byte boundary.
	FormatPadded uint32 = 1

	// HeaderSize is the size of the padded-format segment header.
	HeaderSize = 8

	// MaxRecordLength is the largest payload a record can describe.
	MaxRecordLength = math.MaxInt32

	intBytes = 4
)

// Default permissions for journal files and the directory.
const (
	DefaultFileMode = 0o600
	DefaultDirMode  = 0o750
)

func snapshotName(version int32) string {
	return SnapshotPrefix + strconv.FormatInt(int64(version), 10)
}

func logfileName(version int32) string {
	return LogfilePrefix + strconv.FormatInt(int64(version), 10)
}

// FormatName returns a human readable name for a format id.
func FormatName(format uint32) string {
	switch format {
	case FormatPadded:
		return "padded"
	case FormatUnpadded:
		return "unpadded"
	default:
		return "unknown(" + strconv.FormatUint(uint64(format), 10) + ")"
	}
}

// pad returns the zero bytes needed after offset to reach a 4-byte boundary.
func pad(offset int64) int64 {
	if r := offset % intBytes; r != 0 {
		return intBytes - r
	}
	return 0
}

func segmentHeader() []byte {
	var b [HeaderSize + intBytes]byte
	binary.BigEndian.PutUint32(b[0:4], LogMagic)
	binary.BigEndian.PutUint32(b[4:8], FormatPadded)
	// b[8:12] is the initial zero-length sentinel.
	return b[:]
}
