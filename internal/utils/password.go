package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NormalizarRespuesta lowers and trims a secret-question answer so that
// "Paris " and "paris" hash and verify identically. Apply it before both
// HashPassword and VerifyPassword.
func NormalizarRespuesta(respuesta string) string {
	return strings.ToLower(strings.TrimSpace(respuesta))
}

// HashCodigo returns the SHA-256 hex digest of a recovery code. Only the
// digest is stored, so a leaked table does not expose usable codes.
func HashCodigo(codigo string) string {
	sum := sha256.Sum256([]byte(codigo))
	return hex.EncodeToString(sum[:])
}
