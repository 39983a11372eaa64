// Package auth provides password hashing for employee credentials.
package auth

import (
	"fmt"

	"github.com/matthewhartstonge/argon2"
)

// HashPassword hashes a password with argon2id using library defaults.
func HashPassword(password string) (string, error) {
	config := argon2.DefaultConfig()
	raw, err := config.Hash([]byte(password), nil)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(raw.Encode()), nil
}

// VerifyPassword reports whether the password matches the encoded hash.
// Malformed hashes verify as false, never as an error the caller must
// distinguish from a wrong password.
func VerifyPassword(hash, password string) bool {
	raw, err := argon2.Decode([]byte(hash))
	if err != nil {
		return false
	}
	ok, err := raw.Verify([]byte(password))
	if err != nil {
		return false
	}
	return ok
}
