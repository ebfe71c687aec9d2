// Package cryptox handles email-at-rest protection: reversible encryption
// of the stored address and a one-way fingerprint used for equality
// lookup without plaintext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// EmailCipher encrypts and decrypts email addresses with AES-GCM.
// The AES key is derived from the configured secret with SHA-256, so any
// secret length yields a valid 256-bit key.
type EmailCipher struct {
	key []byte
}

func NewEmailCipher(secret string) *EmailCipher {
	sum := sha256.Sum256([]byte(secret))
	return &EmailCipher{key: sum[:]}
}

// Encrypt returns base64(nonce || ciphertext). A new random nonce is
// generated per call, so two encryptions of the same address differ.
func (c *EmailCipher) Encrypt(email string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := aesgcm.Seal(nonce, nonce, []byte(email), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Tampered or truncated input yields an error,
// never garbage plaintext.
func (c *EmailCipher) Decrypt(encrypted string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < aesgcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := raw[:aesgcm.NonceSize()], raw[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// Fingerprint returns the hex SHA-256 digest of the (already normalized)
// email. Deterministic: equal addresses yield equal fingerprints.
func Fingerprint(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
