// Package adaptive seals small payloads with an AEAD chosen for the host.
//
// AES-256-GCM is used where the CPU accelerates AES, ChaCha20-Poly1305
// elsewhere. Both produce nonce || ciphertext || tag, so a payload sealed by
// one cipher type must be opened by the same type.
//
// Keys come either as raw bytes ("hex:" or "base64:" prefixed strings) or as
// passphrases stretched with Argon2id:
//
//	key, err := adaptive.ParseKey(cfg.EncryptionKey, salt)
//	c, err := adaptive.New(key)
//	sealed, err := c.Seal(plaintext, aad)
//	plaintext, err = c.Open(sealed, aad)
package adaptive
