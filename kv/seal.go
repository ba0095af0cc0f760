package kv

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var errShortCiphertext = errors.New("kv: ciphertext too short")

// sealer encrypts values with XChaCha20-Poly1305. The key is derived from the
// store's crypt key and id, and the storage key is bound as additional data so
// a value cannot be moved to another key.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(cryptKey, id string) *sealer {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(cryptKey), nil, []byte("prefkit/kv:"+id))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails after 255*hash-size bytes.
		panic(err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		panic(err)
	}
	return &sealer{aead: aead}
}

func (s *sealer) seal(plain, ad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, ad), nil
}

func (s *sealer) open(sealed, ad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, errShortCiphertext
	}
	return s.aead.Open(nil, sealed[:n], sealed[n:], ad)
}
