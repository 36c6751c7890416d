// Package credential derives and verifies salted password verifiers.
//
// Verifiers are PBKDF2-HMAC-SHA512 digests. Comparison is constant-time.
package credential

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 round count used when none is configured.
	DefaultIterations = 500000

	// DefaultSaltLength is the salt size in bytes used when none is configured.
	DefaultSaltLength = 32

	// KeyLength is the digest size in bytes (one SHA-512 block output).
	KeyLength = sha512.Size
)

// ErrInvalidSaltLength is returned when a non-positive salt length is requested.
var ErrInvalidSaltLength = errors.New("salt length must be positive")

// GenerateSalt returns length cryptographically random bytes.
func GenerateSalt(length int) ([]byte, error) {
	if length <= 0 {
		return nil, ErrInvalidSaltLength
	}
	salt := make([]byte, length)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to read random salt: %w", err)
	}
	return salt, nil
}

// Derive computes the PBKDF2-HMAC-SHA512 digest of password.
func Derive(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, KeyLength, sha512.New)
}

// Verifier is the stored form of a password. Iterations is the round count
// the digest was derived with; zero means the hasher's current count.
type Verifier struct {
	Salt       []byte
	Digest     []byte
	Iterations int
}

// Encode returns the hex encodings of the salt and digest.
func (v Verifier) Encode() (salt, digest string) {
	return hex.EncodeToString(v.Salt), hex.EncodeToString(v.Digest)
}

// DecodeVerifier parses hex-encoded salt and digest columns.
func DecodeVerifier(salt, digest string, iterations int) (Verifier, error) {
	s, err := hex.DecodeString(salt)
	if err != nil {
		return Verifier{}, fmt.Errorf("invalid salt encoding: %w", err)
	}
	d, err := hex.DecodeString(digest)
	if err != nil {
		return Verifier{}, fmt.Errorf("invalid digest encoding: %w", err)
	}
	return Verifier{Salt: s, Digest: d, Iterations: iterations}, nil
}

// Hasher creates verifiers with a fixed cost.
type Hasher struct {
	Iterations int
	SaltLength int
}

// NewHasher returns a Hasher, substituting defaults for zero values.
func NewHasher(iterations, saltLength int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if saltLength <= 0 {
		saltLength = DefaultSaltLength
	}
	return &Hasher{Iterations: iterations, SaltLength: saltLength}
}

// Hash generates a fresh salt and derives the verifier for password.
func (h *Hasher) Hash(password string) (Verifier, error) {
	salt, err := GenerateSalt(h.SaltLength)
	if err != nil {
		return Verifier{}, err
	}
	return Verifier{
		Salt:       salt,
		Digest:     Derive([]byte(password), salt, h.Iterations),
		Iterations: h.Iterations,
	}, nil
}

// Verify reports whether password matches v, using the round count v was
// created with so that changing the configured cost keeps old verifiers valid.
func (h *Hasher) Verify(password string, v Verifier) bool {
	iterations := v.Iterations
	if iterations <= 0 {
		iterations = h.Iterations
	}
	computed := Derive([]byte(password), v.Salt, iterations)
	return subtle.ConstantTimeCompare(computed, v.Digest) == 1
}
