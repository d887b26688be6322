package util

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Time      = 3
	argon2Memory    = 64 * 1024
	argon2Threads   = 4
	argon2KeyLength = 32
	argon2SaltLen   = 16
)

var (
	ErrEmptyPassword   = errors.New("empty password")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidHash     = errors.New("invalid argon2 hash format")
)

// HashPassword hashes a plaintext password with argon2id.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		hex.EncodeToString(salt), hex.EncodeToString(hash)), nil
}

// ComparePassword checks plain against a hash produced by HashPassword.
func ComparePassword(hashed, plain string) error {
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrInvalidHash
	}

	salt, err := hex.DecodeString(parts[4])
	if err != nil {
		return ErrInvalidHash
	}
	want, err := hex.DecodeString(parts[5])
	if err != nil {
		return ErrInvalidHash
	}

	got := argon2.IDKey([]byte(plain), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLength)
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// HashToken returns the SHA-256 hex of a token for storage.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
