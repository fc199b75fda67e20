// Package utils holds small shared helpers with no domain knowledge.
package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash for storing a client or technician
// credential. Only the hash is ever persisted.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plain password matches the stored hash.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
