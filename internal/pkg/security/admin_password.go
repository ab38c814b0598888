package security

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CheckAdminPassword compares a submitted password against the configured
// secret. When a bcrypt hash is configured it takes precedence over the
// plaintext secret; the plaintext comparison is constant-time.
func CheckAdminPassword(submitted, plainSecret, bcryptHash string) bool {
	if submitted == "" {
		return false
	}
	if bcryptHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(bcryptHash), []byte(submitted)) == nil
	}
	if plainSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(plainSecret)) == 1
}
