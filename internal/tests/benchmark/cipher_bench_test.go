package benchmark

import (
	"context"
	"testing"

	"github.com/yndnr/relog-go/pkg/crypto/adaptive"
)

// BenchmarkSealedPut compares plain and sealed puts.
func BenchmarkSealedPut(b *testing.B) {
	for _, sealed := range []bool{false, true} {
		name := "plain"
		if sealed {
			name = "sealed"
		}
		b.Run(name, func(b *testing.B) {
			var c adaptive.Cipher
			if sealed {
				c = newCipher(b)
			}
			s := openStore(b, b.TempDir(), false, c)
			defer s.Close()
			ctx := context.Background()
			value := randomBytes(1024)

			b.SetBytes(1024)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := s.Put(ctx, keyFor(i%10000), value); err != nil {
					b.Fatalf("put: %v", err)
				}
			}
		})
	}
}

// BenchmarkCipherSeal benchmarks each cipher at several payload sizes.
func BenchmarkCipherSeal(b *testing.B) {
	key := randomBytes(adaptive.KeySize)
	for _, t := range []adaptive.CipherType{adaptive.CipherAESGCM, adaptive.CipherChaCha20} {
		c, err := adaptive.NewWithType(key, t)
		if err != nil {
			b.Fatal(err)
		}
		for _, size := range ValueSizes {
			b.Run(string(t)+"/"+sizeLabel(size), func(b *testing.B) {
				data := randomBytes(size)
				ad := []byte("relog/kv/update")
				b.SetBytes(int64(size))
				b.ResetTimer()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := c.Seal(data, ad); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkKeyDerivation benchmarks deriving a key from a passphrase.
func BenchmarkKeyDerivation(b *testing.B) {
	salt := []byte("relog-bench-salt")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		adaptive.DeriveKey([]byte("correct horse battery staple"), salt)
	}
}
