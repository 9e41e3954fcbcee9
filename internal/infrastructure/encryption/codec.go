// Package encryption provides the at-rest encodings for merchant access tokens.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"refundsafe-shopify-layer/internal/ports"
)

var (
	_ ports.TokenCodec = Base64Codec{}
	_ ports.TokenCodec = (*AESGCMCodec)(nil)
)

// Base64Codec stores tokens base64-encoded. It is reversible by anyone with read
// access to the store and provides no confidentiality; it exists for local
// development only.
type Base64Codec struct{}

func (Base64Codec) Encode(plain string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(plain)), nil
}

func (Base64Codec) Decode(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	return string(b), nil
}

// AESGCMCodec encrypts tokens with AES-256-GCM. The output is
// base64(nonce || ciphertext || tag).
type AESGCMCodec struct {
	aead cipher.AEAD
}

// NewAESGCMCodec creates a codec from a 32-byte key.
func NewAESGCMCodec(key []byte) (*AESGCMCodec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESGCMCodec{aead: aead}, nil
}

func (c *AESGCMCodec) Encode(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AESGCMCodec) Decode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return "", errors.New("encrypted token too short")
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return string(plain), nil
}

// NewCodec picks AES-GCM when a key is configured and the base64 placeholder otherwise.
func NewCodec(key []byte) (ports.TokenCodec, error) {
	if len(key) == 0 {
		return Base64Codec{}, nil
	}
	return NewAESGCMCodec(key)
}
