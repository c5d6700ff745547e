// Package codec provides encode/decode strategies for journal payloads.
//
// Journal handlers receive bounded readers and writers; a Codec turns a
// value into bytes on such a writer and back. Codecs compose: Sealed and
// Checked wrap another codec.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/yndnr/relog-go/pkg/crypto/adaptive"
)

var (
	// ErrOpen means a sealed payload could not be authenticated: wrong key,
	// wrong associated data, or tampered bytes.
	ErrOpen = errors.New("codec: cannot open sealed payload")

	// ErrChecksum means a checked payload does not match its CRC.
	ErrChecksum = errors.New("codec: checksum mismatch")
)

// Codec encodes values of type T.
type Codec[T any] interface {
	Encode(w io.Writer, v T) error
	Decode(r io.Reader) (T, error)
}

// JSON encodes values with encoding/json.
type JSON[T any] struct{}

func (JSON[T]) Encode(w io.Writer, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("codec: marshal json: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func (JSON[T]) Decode(r io.Reader) (T, error) {
	var v T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("codec: unmarshal json: %w", err)
	}
	return v, nil
}

// Raw passes bytes through. Decode reads everything left in r, which for a
// journal record is exactly the payload.
type Raw struct{}

func (Raw) Encode(w io.Writer, v []byte) error {
	_, err := w.Write(v)
	return err
}

func (Raw) Decode(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

// Sealed encrypts the output of Inner with Cipher. AD is bound to every
// payload as associated data; a payload sealed under one AD does not open
// under another.
type Sealed[T any] struct {
	Inner  Codec[T]
	Cipher adaptive.Cipher
	AD     []byte
}

// NewSealed returns a Sealed codec around inner.
func NewSealed[T any](inner Codec[T], c adaptive.Cipher, ad []byte) *Sealed[T] {
	return &Sealed[T]{Inner: inner, Cipher: c, AD: ad}
}

func (s *Sealed[T]) Encode(w io.Writer, v T) error {
	var buf bytes.Buffer
	if err := s.Inner.Encode(&buf, v); err != nil {
		return err
	}
	sealed, err := s.Cipher.Seal(buf.Bytes(), s.AD)
	if err != nil {
		return fmt.Errorf("codec: seal: %w", err)
	}
	_, err = w.Write(sealed)
	return err
}

func (s *Sealed[T]) Decode(r io.Reader) (T, error) {
	var zero T
	sealed, err := io.ReadAll(r)
	if err != nil {
		return zero, err
	}
	plain, err := s.Cipher.Open(sealed, s.AD)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return s.Inner.Decode(bytes.NewReader(plain))
}

// Checked appends a CRC-32 (IEEE) of the inner encoding and verifies it on
// decode.
type Checked[T any] struct {
	Inner Codec[T]
}

func (c Checked[T]) Encode(w io.Writer, v T) error {
	var buf bytes.Buffer
	if err := c.Inner.Encode(&buf, v); err != nil {
		return err
	}
	buf.Write(binary.BigEndian.AppendUint32(nil, crc32.ChecksumIEEE(buf.Bytes())))
	_, err := w.Write(buf.Bytes())
	return err
}

func (c Checked[T]) Decode(r io.Reader) (T, error) {
	var zero T
	b, err := io.ReadAll(r)
	if err != nil {
		return zero, err
	}
	if len(b) < 4 {
		return zero, fmt.Errorf("%w: %d bytes", ErrChecksum, len(b))
	}
	body, sum := b[:len(b)-4], binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.ChecksumIEEE(body) != sum {
		return zero, ErrChecksum
	}
	return c.Inner.Decode(bytes.NewReader(body))
}
