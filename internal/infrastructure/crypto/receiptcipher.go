// Package crypto contains the AEAD primitives that protect purchase receipts
// at rest.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyLen is the required receipt key length in bytes.
const KeyLen = chacha20poly1305.KeySize

var (
	// ErrKeyNotConfigured is returned when no receipt encryption key is set.
	// The purchase ledger refuses to persist receipts rather than storing
	// them in plaintext.
	ErrKeyNotConfigured = errors.New("receipt encryption key not configured")

	// ErrInvalidKey is returned when the configured key is malformed
	ErrInvalidKey = errors.New("invalid receipt encryption key")

	// ErrCiphertextTooShort is returned for a blob shorter than one nonce
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// ReceiptCipher seals raw signed purchase payloads with XChaCha20-Poly1305.
// Ciphertext layout is nonce || sealed; the transaction ID binds the blob to
// its ledger row as associated data.
type ReceiptCipher struct {
	key []byte
}

// NewReceiptCipher builds a cipher from a base64-encoded 32-byte key. An
// empty key returns ErrKeyNotConfigured so callers can refuse before any
// ledger mutation.
func NewReceiptCipher(base64Key string) (*ReceiptCipher, error) {
	if base64Key == "" {
		return nil, ErrKeyNotConfigured
	}

	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != KeyLen {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidKey, KeyLen, len(key))
	}

	return &ReceiptCipher{key: key}, nil
}

// Seal encrypts a raw receipt with the transaction ID as AAD and a random
// nonce prefixed to the ciphertext.
func (c *ReceiptCipher) Seal(transactionID string, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, []byte(transactionID))...)
	return out, nil
}

// Open decrypts a receipt blob sealed with the same transaction ID.
func (c *ReceiptCipher) Open(transactionID string, blob []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, ErrCiphertextTooShort
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}

	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, []byte(transactionID))
}
