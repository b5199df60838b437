// Package cryptostore provides the at-rest encryption primitives ragvault
// layers under every persisted chunk: a process-wide AES-256-GCM key
// (Keystore) and an AEAD wrapper (Cipher) that prefixes a random 96-bit
// nonce to its ciphertext.
//
// Blobs are small and self-contained, so there is no streaming mode, no
// manifest, and no derived per-chunk IVs: one random nonce per Encrypt
// call, prefixed to the ciphertext.
package cryptostore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// KeySize is the symmetric key length in bytes (256 bits).
const KeySize = 32

// NonceSize is the AES-GCM nonce length in bytes (96 bits).
const NonceSize = 12

// TagSize is the AES-GCM authentication tag length in bytes (128 bits).
const TagSize = 16

// minBlobLen is the smallest blob Decrypt will hand to the AEAD: the
// 12-byte nonce plus at least one ciphertext byte. Longer-but-still
// -truncated blobs fail tag verification instead.
const minBlobLen = NonceSize + 1

// Sentinel errors for cipher operations.
var (
	// ErrInvalidPayload is returned when a blob is shorter than
	// minBlobLen, i.e. it cannot carry a nonce plus one ciphertext byte.
	ErrInvalidPayload = errors.New("cryptostore: invalid payload, blob too short")

	// ErrIntegrityFailure is returned when the AEAD tag does not verify,
	// meaning the ciphertext or nonce was tampered with.
	ErrIntegrityFailure = errors.New("cryptostore: integrity check failed")

	// ErrInvalidKeySize is returned when a key of the wrong length is used.
	ErrInvalidKeySize = errors.New("cryptostore: key must be 32 bytes")
)

// Cipher performs AEAD encryption/decryption with a fixed 256-bit key.
// Each Encrypt call draws a fresh cryptographically random nonce and
// prefixes it to the returned ciphertext: nonce ‖ ciphertext+tag.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher constructs a Cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptostore: creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptostore: creating GCM mode: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext (with optional additional authenticated data)
// and returns nonce ‖ ciphertext+tag.
func (c *Cipher) Encrypt(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cryptostore: generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, plaintext, aad)
	return append(nonce, sealed...), nil
}

// Decrypt splits a nonce-prefixed blob and opens it, verifying the AEAD
// tag against the optional additional authenticated data.
func (c *Cipher) Decrypt(blob, aad []byte) ([]byte, error) {
	if len(blob) < minBlobLen {
		return nil, ErrInvalidPayload
	}
	nonce, ciphertext := blob[:NonceSize], blob[NonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrIntegrityFailure
	}
	return plaintext, nil
}
