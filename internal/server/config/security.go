package config

import "github.com/yndnr/relog-go/pkg/crypto/adaptive"

// NewCipher builds the payload cipher. It returns nil when no key is
// configured, which leaves payloads in the clear.
func (s SecuritySection) NewCipher() (adaptive.Cipher, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := adaptive.ParseKey(s.EncryptionKey, []byte(s.KeySalt))
	if err != nil {
		return nil, err
	}
	t, err := adaptive.ParseCipherType(s.Cipher)
	if err != nil {
		return nil, err
	}
	return adaptive.NewFromConfig(key, t)
}
