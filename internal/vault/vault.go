// Package vault seals byte payloads under a password: PBKDF2-HMAC-SHA256
// key derivation and AES-256-GCM, laid out as salt ‖ iv ‖ ciphertext+tag.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 16
	IVSize     = 12
	KeySize    = 32
	Iterations = 100000
	Algorithm  = "AES-GCM"
)

// ErrDecrypt covers both a wrong password and corrupted data; GCM cannot
// tell them apart.
var ErrDecrypt = errors.New("vault: decryption failed")

// Random is the entropy source for salts and IVs. Tests may swap it.
var Random io.Reader = rand.Reader

func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

// Seal encrypts plaintext under password and returns salt ‖ iv ‖ ciphertext.
func Seal(password string, plaintext []byte) ([]byte, error) {
	buf := make([]byte, SaltSize+IVSize, SaltSize+IVSize+len(plaintext)+16)
	if _, err := io.ReadFull(Random, buf); err != nil {
		return nil, fmt.Errorf("vault: random: %w", err)
	}
	salt, iv := buf[:SaltSize], buf[SaltSize:]
	gcm, err := newGCM(DeriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	return gcm.Seal(buf, iv, plaintext, nil), nil
}

// Open reverses Seal. Any failure after the layout check is ErrDecrypt.
func Open(password string, blob []byte) ([]byte, error) {
	if len(blob) < SaltSize+IVSize {
		return nil, fmt.Errorf("%w: payload too short (%d bytes)", ErrDecrypt, len(blob))
	}
	salt := blob[:SaltSize]
	iv := blob[SaltSize : SaltSize+IVSize]
	ct := blob[SaltSize+IVSize:]

	gcm, err := newGCM(DeriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	pt, err := gcm.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("vault: gcm: %w", err)
	}
	return gcm, nil
}
