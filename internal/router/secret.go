package router

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/traidnet/wificore/internal/common/errorx"
)

// Cipher encrypts device credentials at rest with AES-GCM. The key is
// derived from the configured secret so rotating the secret invalidates
// every stored credential at once.
type Cipher struct {
	aead cipher.AEAD
}

func NewCipher(secret string) (*Cipher, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext and returns base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a stored credential. Every failure mode maps to the same
// error kind and the reason never carries ciphertext or key material.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errorx.New(errorx.KindDecryptionFailed, "stored credential is not valid base64")
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errorx.New(errorx.KindDecryptionFailed, "stored credential is truncated")
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errorx.New(errorx.KindDecryptionFailed, "stored credential fails authentication")
	}
	return string(plaintext), nil
}
