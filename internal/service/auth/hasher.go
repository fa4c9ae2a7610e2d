package auth

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher creates and compares password hashes
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password.
	// Must be protected against timing attacks.
	Compare(hashedPassword string, password string) error
}

// BcryptHasher hashes a sha256 pre-digest of the password with bcrypt.
// The pre-digest lifts bcrypt's 72-byte input limit.
type BcryptHasher struct{}

func (h BcryptHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}
