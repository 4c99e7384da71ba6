// Package auth owns the hashing and verification of user secrets.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces a salted one-way digest of the given secret.
// bcrypt generates a fresh random salt per call, so hashing the same
// secret twice yields different digests.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the secret matches the stored digest.
// Any mismatch, malformed digest, or internal fault yields false; the
// comparison itself is constant-time inside bcrypt.
func VerifyPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
