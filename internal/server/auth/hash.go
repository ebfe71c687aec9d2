package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of password. bcrypt embeds a fresh
// random salt per call, so hashing the same password twice yields
// different strings.
func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// A malformed hash verifies false rather than erroring out.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
