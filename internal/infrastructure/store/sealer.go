package store

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	saltLen = 16
	keyLen  = chacha20poly1305.KeySize

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

var errSealedTooShort = errors.New("sealed value too short")

// Sealer encrypts values at rest with XChaCha20-Poly1305. The master key is
// derived from a passphrase with Argon2id; each storage key gets its own
// subkey via HKDF and is bound as additional data, so values cannot be
// swapped between keys.
type Sealer struct {
	master []byte
}

// NewSalt returns a random salt for NewSealer.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// NewSealer derives the master key from passphrase and salt.
func NewSealer(passphrase, salt []byte) *Sealer {
	return &Sealer{master: argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, keyLen)}
}

// Seal encrypts plaintext stored under key. Output is nonce || ciphertext.
func (s *Sealer) Seal(key string, plaintext []byte) ([]byte, error) {
	aead, err := s.aead(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, []byte(key)), nil
}

// Open decrypts a value produced by Seal for the same key.
func (s *Sealer) Open(key string, sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, errSealedTooShort
	}
	aead, err := s.aead(key)
	if err != nil {
		return nil, err
	}
	nonce, ct := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return pt, nil
}

func (s *Sealer) aead(key string) (cipher.AEAD, error) {
	sub := make([]byte, keyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.master, nil, []byte(key)), sub); err != nil {
		return nil, fmt.Errorf("derive subkey: %w", err)
	}
	return chacha20poly1305.NewX(sub)
}
