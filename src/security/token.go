package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyToken = errors.New("token must not be empty")

// HashToken returns a bcrypt hash suitable for PROXY_TOKEN_HASH.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", ErrEmptyToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

// CheckToken compares a presented token against the configured hash.
// An empty hash means the check is disabled and every token passes.
func CheckToken(hash, token string) bool {
	if hash == "" {
		return true
	}
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
