package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

var (
	ErrKeySize       = errors.New("adaptive: invalid key size")
	ErrUnknownCipher = errors.New("adaptive: unknown cipher type")
	ErrShort         = errors.New("adaptive: sealed data too short")
	ErrAuth          = errors.New("adaptive: message authentication failed")
)

// Cipher seals and opens payloads with an AEAD. Sealed output carries its
// own random nonce, so the same Cipher can be shared by concurrent callers.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Seal returns nonce || ciphertext || tag.
	Seal(plaintext, additionalData []byte) ([]byte, error)

	// Open reverses Seal. It fails with ErrAuth if the data, the key or the
	// additional data do not match.
	Open(sealed, additionalData []byte) ([]byte, error)

	// Overhead is the number of bytes Seal adds to a plaintext.
	Overhead() int
}

// New picks AES-GCM where the platform accelerates it and ChaCha20-Poly1305
// elsewhere.
func New(key []byte) (Cipher, error) {
	if hasAESAcceleration() {
		return NewWithType(key, CipherAESGCM)
	}
	return NewWithType(key, CipherChaCha20)
}

// NewWithType creates a cipher of the given type.
func NewWithType(key []byte, t CipherType) (Cipher, error) {
	switch t {
	case CipherAESGCM:
		switch len(key) {
		case 16, 24, 32:
		default:
			return nil, fmt.Errorf("%w: aes-gcm needs 16, 24 or 32 bytes, got %d", ErrKeySize, len(key))
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		a, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return &aeadCipher{typ: t, aead: a}, nil

	case CipherChaCha20:
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("%w: chacha20-poly1305 needs %d bytes, got %d", ErrKeySize, chacha20poly1305.KeySize, len(key))
		}
		a, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, err
		}
		return &aeadCipher{typ: t, aead: a}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, t)
	}
}

// ParseCipherType maps a configuration value to a cipher type. "auto" and
// the empty string return "" which NewFromConfig resolves like New.
func ParseCipherType(s string) (CipherType, error) {
	switch CipherType(strings.ToLower(strings.TrimSpace(s))) {
	case "", "auto":
		return "", nil
	case CipherAESGCM:
		return CipherAESGCM, nil
	case CipherChaCha20, "chacha20":
		return CipherChaCha20, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCipher, s)
	}
}

// NewFromConfig builds a cipher for a parsed type, falling back to New when
// t is empty.
func NewFromConfig(key []byte, t CipherType) (Cipher, error) {
	if t == "" {
		return New(key)
	}
	return NewWithType(key, t)
}

// Go uses AES-NI on amd64 and the ARMv8 crypto extensions on arm64.
func hasAESAcceleration() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x":
		return true
	default:
		return false
	}
}

type aeadCipher struct {
	typ  CipherType
	aead cipher.AEAD
}

func (c *aeadCipher) Type() CipherType {
	return c.typ
}

func (c *aeadCipher) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead()
}

func (c *aeadCipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	out := make([]byte, ns, ns+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		return nil, fmt.Errorf("adaptive: read nonce: %w", err)
	}
	return c.aead.Seal(out, out[:ns], plaintext, additionalData), nil
}

func (c *aeadCipher) Open(sealed, additionalData []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns+c.aead.Overhead() {
		return nil, ErrShort
	}
	plain, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], additionalData)
	if err != nil {
		return nil, ErrAuth
	}
	return plain, nil
}
