package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrSecretMismatch = errors.New("secret does not match")

// HashSecret returns a salted bcrypt hash for a PIN or password.
func HashSecret(secret string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareSecret checks a plaintext secret against its bcrypt hash in constant time.
// A malformed hash is reported as a mismatch.
func CompareSecret(hash, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return ErrSecretMismatch
	}
	return nil
}
