// Package vault implements the encryption boundary around third-party API
// credentials. A single process-wide master secret is loaded at startup and
// wrapped in a Cipher that exposes only Encrypt and Decrypt; the raw secret
// bytes are never reachable through any public operation, and the Cipher has
// no String/MarshalJSON path that could leak them into logs.
//
// Ciphertext format: base64(nonce || AES-256-GCM sealed plaintext). A fresh
// random nonce is drawn per encryption, so the same plaintext never maps to
// the same ciphertext twice.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// MasterKeySize is the required master secret length in bytes (AES-256).
const MasterKeySize = 32

var (
	// ErrInvalidKeySize is returned when the master secret is not 32 bytes.
	ErrInvalidKeySize = errors.New("vault: master key must be 32 bytes")

	// ErrInvalidCiphertext is returned when stored ciphertext cannot be
	// decoded or fails authentication. It deliberately carries no detail
	// about which step failed.
	ErrInvalidCiphertext = errors.New("vault: invalid or corrupted ciphertext")
)

// Cipher encrypts and decrypts credential plaintext with the process-wide
// master secret. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a raw 32-byte master secret.
func NewCipher(masterKey []byte) (*Cipher, error) {
	if len(masterKey) != MasterKeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// NewCipherFromHex builds a Cipher from a hex-encoded master secret, the form
// used in configuration (MASTER_KEY).
func NewCipherFromHex(s string) (*Cipher, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrInvalidKeySize
	}
	return NewCipher(key)
}

// Encrypt seals plaintext and returns the base64-encoded nonce||ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any decode or authentication failure yields
// ErrInvalidCiphertext.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrInvalidCiphertext
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

// maskMarker replaces the hidden middle of a key in its display form.
const maskMarker = "..."

// Mask returns the display form of an API key: the first four and last four
// characters with the middle replaced by a fixed marker. Keys shorter than
// eight runes are fully masked.
func Mask(key string) string {
	r := []rune(key)
	if len(r) < 8 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:4]) + maskMarker + string(r[len(r)-4:])
}
