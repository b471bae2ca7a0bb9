// Package passhash hashes account passwords with salted PBKDF2-HMAC-SHA256.
// The encoded form is pbkdf2_sha256$<iterations>$<saltB64>$<dkB64>.
package passhash

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultIterations = 210_000
	SaltLen           = 16
	KeyLen            = 32
)

// HashPassword derives a fresh salted hash for storage.
func HashPassword(password string) (string, error) {
	return hashWithIters(password, DefaultIterations)
}

func hashWithIters(password string, iterations int) (string, error) {
	if iterations <= 0 {
		return "", errors.New("iterations must be > 0")
	}
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	dk := derive([]byte(password), salt, iterations, KeyLen)

	return fmt.Sprintf(
		"pbkdf2_sha256$%d$%s$%s",
		iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// VerifyPassword compares a plaintext password against an encoded hash in
// constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	const prefix = "pbkdf2_sha256$"
	if !strings.HasPrefix(encoded, prefix) {
		return false, errors.New("unsupported hash format")
	}
	parts := strings.Split(encoded[len(prefix):], "$")
	if len(parts) != 3 {
		return false, errors.New("malformed hash")
	}

	iters, err := strconv.Atoi(parts[0])
	if err != nil || iters <= 0 {
		return false, errors.New("invalid iterations")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false, errors.New("invalid salt")
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false, errors.New("invalid derived key")
	}

	got := derive([]byte(password), salt, iters, len(want))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// derive implements PBKDF2 per RFC 8018 with HMAC-SHA256.
func derive(password, salt []byte, iter, keyLen int) []byte {
	if iter <= 0 || keyLen <= 0 {
		return nil
	}
	hLen := sha256.Size
	numBlocks := (keyLen + hLen - 1) / hLen
	out := make([]byte, 0, numBlocks*hLen)

	var blockIndex [4]byte
	for i := 1; i <= numBlocks; i++ {
		blockIndex[0] = byte(i >> 24)
		blockIndex[1] = byte(i >> 16)
		blockIndex[2] = byte(i >> 8)
		blockIndex[3] = byte(i)

		u := hmacSum(password, append(salt, blockIndex[:]...))
		t := make([]byte, len(u))
		copy(t, u)

		for j := 1; j < iter; j++ {
			u = hmacSum(password, u)
			for k := range t {
				t[k] ^= u[k]
			}
		}
		out = append(out, t...)
	}
	return out[:keyLen]
}

func hmacSum(key, data []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(data)
	return m.Sum(nil)
}
