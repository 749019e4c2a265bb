package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) string {
	key := make([]byte, KeyLen)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func TestNewReceiptCipher_EmptyKey(t *testing.T) {
	_, err := NewReceiptCipher("")
	assert.ErrorIs(t, err, ErrKeyNotConfigured)
}

func TestNewReceiptCipher_InvalidKey(t *testing.T) {
	_, err := NewReceiptCipher("not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidKey)

	short := base64.StdEncoding.EncodeToString([]byte("too-short"))
	_, err = NewReceiptCipher(short)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestReceiptCipher_RoundTrip(t *testing.T) {
	cipher, err := NewReceiptCipher(testKey(t))
	require.NoError(t, err)

	plaintext := []byte(`{"signedTransactionInfo":"eyJhbGciOiJFUzI1NiJ9..."}`)

	blob, err := cipher.Seal("txn-1000000123", plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, blob)

	opened, err := cipher.Open("txn-1000000123", blob)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestReceiptCipher_NonceUniquePerSeal(t *testing.T) {
	cipher, err := NewReceiptCipher(testKey(t))
	require.NoError(t, err)

	first, err := cipher.Seal("txn-1", []byte("receipt"))
	require.NoError(t, err)
	second, err := cipher.Seal("txn-1", []byte("receipt"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestReceiptCipher_WrongTransactionID(t *testing.T) {
	cipher, err := NewReceiptCipher(testKey(t))
	require.NoError(t, err)

	blob, err := cipher.Seal("txn-1", []byte("receipt"))
	require.NoError(t, err)

	_, err = cipher.Open("txn-2", blob)
	assert.Error(t, err, "blob bound to another transaction must not open")
}

func TestReceiptCipher_TamperedCiphertext(t *testing.T) {
	cipher, err := NewReceiptCipher(testKey(t))
	require.NoError(t, err)

	blob, err := cipher.Seal("txn-1", []byte("receipt"))
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0x01
	_, err = cipher.Open("txn-1", blob)
	assert.Error(t, err)
}

func TestReceiptCipher_TruncatedBlob(t *testing.T) {
	cipher, err := NewReceiptCipher(testKey(t))
	require.NoError(t, err)

	_, err = cipher.Open("txn-1", []byte("short"))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
