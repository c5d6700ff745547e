package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// readVersion returns the generation recorded in dir's version marker. A
// missing marker means generation 0.
func readVersion(dir string) (int32, error) {
	path := filepath.Join(dir, VersionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("journal: read version marker: %w", err)
	}
	if len(data) != intBytes {
		return 0, logicalError("open", path, fmt.Errorf("%w: %d bytes", ErrBadVersion, len(data)))
	}
	v := int32(binary.BigEndian.Uint32(data))
	if v < 0 {
		return 0, logicalError("open", path, fmt.Errorf("%w: %d", ErrBadVersion, v))
	}
	return v, nil
}

// writeVersion replaces the version marker. The new marker is written to a
// temporary file, synced and renamed over the old one, so a reader sees
// either the previous generation or the new one. The caller syncs dir to make
// the rename durable.
func writeVersion(dir string, v int32) error {
	var b [intBytes]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))

	f, err := os.CreateTemp(dir, VersionFile+tempSuffix)
	if err != nil {
		return fmt.Errorf("journal: write version marker: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(b[:]); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("journal: write version marker: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("journal: sync version marker: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("journal: close version marker: %w", err)
	}
	if err := atomic.ReplaceFile(tmp, filepath.Join(dir, VersionFile)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("journal: publish version marker: %w", err)
	}
	return nil
}

const tempSuffix = ".tmp*"

// versionTemps lists temporary markers left in dir by an interrupted publish.
func versionTemps(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if name := e.Name(); !e.IsDir() && name != VersionFile && strings.HasPrefix(name, VersionFile) {
			out = append(out, name)
		}
	}
	return out
}
