package adaptive

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// KeySize is the key length produced by DeriveKey and required by ParseKey
// for raw keys.
const KeySize = 32

// Argon2id parameters for passphrase stretching.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

var ErrEmptyKey = errors.New("adaptive: empty key")

// DeriveKey stretches a passphrase into a KeySize key with Argon2id. The same
// passphrase and salt always produce the same key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeySize)
}

// ParseKey turns a configured key into key bytes:
//
//	hex:<64 hex digits>      raw 32-byte key
//	base64:<std encoding>    raw 32-byte key
//	anything else            passphrase, derived with salt
func ParseKey(s string, salt []byte) ([]byte, error) {
	if s == "" {
		return nil, ErrEmptyKey
	}
	var (
		key []byte
		err error
	)
	switch {
	case strings.HasPrefix(s, "hex:"):
		key, err = hex.DecodeString(s[len("hex:"):])
	case strings.HasPrefix(s, "base64:"):
		key, err = base64.StdEncoding.DecodeString(s[len("base64:"):])
	default:
		return DeriveKey([]byte(s), salt), nil
	}
	if err != nil {
		return nil, fmt.Errorf("adaptive: decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrKeySize, KeySize, len(key))
	}
	return key, nil
}
