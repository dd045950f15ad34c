// Package crypto implements admin secret hashing and session token generation.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
)

// SessionTokenBytes is the amount of entropy in a session token.
const SessionTokenBytes = 32

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns Argon2id hash of password using the provided salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// VerifyPassword verifies password against expected Argon2id hash and salt.
func VerifyPassword(password, salt, expected []byte) bool {
	got := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// Secret holds an Argon2id digest of the configured admin secret.
// The plaintext is dropped after construction.
type Secret struct {
	salt []byte
	hash []byte
}

// NewSecret hashes plain with a fresh random salt.
func NewSecret(plain string) (Secret, error) {
	if plain == "" {
		return Secret{}, errors.New("empty admin secret")
	}
	salt, err := RandBytes(16)
	if err != nil {
		return Secret{}, err
	}
	return Secret{salt: salt, hash: HashPassword([]byte(plain), salt)}, nil
}

// Matches compares candidate to the secret in constant time.
func (s Secret) Matches(candidate string) bool {
	if len(s.hash) == 0 {
		return false
	}
	return VerifyPassword([]byte(candidate), s.salt, s.hash)
}

// NewSessionToken returns SessionTokenBytes random bytes, base64url without padding.
func NewSessionToken() (string, error) {
	b, err := RandBytes(SessionTokenBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenKey returns a stable digest of a session token for persistent backends,
// so raw tokens never reach a database or cache.
func TokenKey(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
