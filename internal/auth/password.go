package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor applied to every stored credential.
const HashCost = 10

var (
	// ErrEmptyPassword is returned when an empty string is submitted for hashing
	ErrEmptyPassword = errors.New("auth: password must not be empty")

	// ErrMismatchedPassword is returned when a password does not match its hash
	ErrMismatchedPassword = errors.New("auth: password does not match hash")
)

// HashPassword generates a salted bcrypt hash of the given plaintext. The
// salt is embedded in the encoding, so two calls on the same input produce
// different strings.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	return string(h), err
}

// ComparePasswordAndHash validates the given cleartext password against a
// stored hash. bcrypt's comparison is constant-time over the digest.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedPassword
		}
		return err
	}
	return nil
}
