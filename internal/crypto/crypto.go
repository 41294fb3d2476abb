// Package crypto encrypts history documents stored off-host.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 100000
	keySize    = 32 // AES-256

	// sealedPrefix tags encrypted documents so plain ones can still be read
	sealedPrefix = "clubot:v1:"
)

// ErrNotSealed is returned by Open for data that was never encrypted
var ErrNotSealed = errors.New("document is not encrypted")

// Encryptor seals and opens documents with AES-GCM
type Encryptor struct {
	key []byte
}

// NewEncryptor derives a key from passphrase. An empty passphrase yields a
// nil Encryptor, which passes documents through unchanged.
func NewEncryptor(passphrase string) *Encryptor {
	if passphrase == "" {
		return nil
	}

	// The salt is derived from the passphrase so the key is reproducible
	// without storing anything next to the document.
	salt := sha256.Sum256([]byte(passphrase + "clubot-salt"))
	key := pbkdf2.Key([]byte(passphrase), salt[:], iterations, keySize, sha256.New)

	return &Encryptor{key: key}
}

// Seal encrypts a document and returns it as tagged base64 text
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	if e == nil || e.key == nil {
		return plaintext, nil
	}

	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return []byte(sealedPrefix + base64.StdEncoding.EncodeToString(sealed)), nil
}

// Open decrypts a document produced by Seal. Untagged input is returned
// as-is together with ErrNotSealed so callers can accept plain documents
// written before encryption was turned on.
func (e *Encryptor) Open(data []byte) ([]byte, error) {
	if e == nil || e.key == nil {
		return data, nil
	}

	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte(sealedPrefix)) {
		return data, ErrNotSealed
	}

	raw, err := base64.StdEncoding.DecodeString(string(trimmed[len(sealedPrefix):]))
	if err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}

	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, cipherData := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, cipherData, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting document: %w", err)
	}

	return plaintext, nil
}

func (e *Encryptor) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
