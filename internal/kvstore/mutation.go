package kvstore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yndnr/relog-go/pkg/cmap"
)

// Op is the kind of a logged mutation.
type Op uint8

const (
	OpPut    Op = 1
	OpDelete Op = 2
)

func (o Op) String() string {
	switch o {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Mutation is one journaled change to the store.
type Mutation struct {
	Op    Op
	Key   string
	Value []byte
}

// Wire field numbers, shared by mutations and snapshot entries.
const (
	fieldOp    protowire.Number = 1
	fieldKey   protowire.Number = 2
	fieldValue protowire.Number = 3
)

// snapshotMagic opens every snapshot payload.
const snapshotMagic = "RLKV"

var (
	ErrBadMutation = errors.New("kvstore: malformed mutation")
	ErrBadSnapshot = errors.New("kvstore: malformed snapshot")
)

func appendMutation(b []byte, m Mutation) []byte {
	b = protowire.AppendTag(b, fieldOp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Op))
	b = appendEntry(b, m.Key, m.Value, m.Op == OpPut)
	return b
}

func appendEntry(b []byte, key string, value []byte, withValue bool) []byte {
	b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
	b = protowire.AppendString(b, key)
	if withValue {
		b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
		b = protowire.AppendBytes(b, value)
	}
	return b
}

// parseFields decodes a mutation or snapshot entry message. Unknown fields
// are skipped.
func parseFields(b []byte) (Mutation, error) {
	var m Mutation
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return m, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldOp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.Op = Op(v)
			b = b[n:]
		case num == fieldKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.Key = string(v)
			b = b[n:]
		case num == fieldValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.Value = append([]byte{}, v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return m, nil
}

// mutationCodec is the plain wire codec for Mutation.
type mutationCodec struct{}

func (mutationCodec) Encode(w io.Writer, m Mutation) error {
	_, err := w.Write(appendMutation(nil, m))
	return err
}

func (mutationCodec) Decode(r io.Reader) (Mutation, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Mutation{}, err
	}
	m, err := parseFields(b)
	if err != nil {
		return m, fmt.Errorf("%w: %w", ErrBadMutation, err)
	}
	switch {
	case m.Op != OpPut && m.Op != OpDelete:
		return m, fmt.Errorf("%w: %s", ErrBadMutation, m.Op)
	case m.Key == "":
		return m, fmt.Errorf("%w: empty key", ErrBadMutation)
	case m.Op == OpPut && m.Value == nil:
		m.Value = []byte{}
	}
	return m, nil
}

// snapshotCodec writes the whole key space:
//
//	"RLKV" uvarint(count) { uvarint(len) entry }*
//
// where entry is a wire message with fields 2 (key) and 3 (value).
type snapshotCodec struct{}

func (snapshotCodec) Encode(w io.Writer, entries []cmap.Entry[[]byte]) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(snapshotMagic)
	bw.Write(protowire.AppendVarint(nil, uint64(len(entries))))

	var buf []byte
	for _, e := range entries {
		buf = appendEntry(buf[:0], e.Key, e.Value, true)
		bw.Write(protowire.AppendVarint(nil, uint64(len(buf))))
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (snapshotCodec) Decode(r io.Reader) ([]cmap.Entry[[]byte], error) {
	br := bufio.NewReader(r)

	var magic [len(snapshotMagic)]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: read magic: %w", ErrBadSnapshot, err)
	}
	if string(magic[:]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadSnapshot, magic[:])
	}
	count, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("%w: read count: %w", ErrBadSnapshot, err)
	}

	entries := make([]cmap.Entry[[]byte], 0, min(count, 1<<16))
	var buf []byte
	for i := uint64(0); i < count; i++ {
		n, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrBadSnapshot, i, err)
		}
		if n > uint64(maxEntrySize) {
			return nil, fmt.Errorf("%w: entry %d is %d bytes", ErrBadSnapshot, i, n)
		}
		if uint64(cap(buf)) < n {
			buf = make([]byte, n)
		}
		buf = buf[:n]
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrBadSnapshot, i, err)
		}
		m, err := parseFields(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrBadSnapshot, i, err)
		}
		if m.Value == nil {
			m.Value = []byte{}
		}
		entries = append(entries, cmap.Entry[[]byte]{Key: m.Key, Value: m.Value})
	}
	return entries, nil
}
