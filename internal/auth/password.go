package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// passwordKeyspace deliberately omits the look-alikes 0, O, I and l.
const passwordKeyspace = "123456789" +
	"abcdefghijkmnopqrstuvwxyz" +
	"ABCDEFGHJKLMNPQRSTUVWXYZ" +
	"!@#$%^&*-_+=?"

const generatedPasswordLength = 24

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored bcrypt hash.
func VerifyPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// GeneratePassword returns a 24-character random password drawn from the
// keyspace above using crypto/rand.
func GeneratePassword() (string, error) {
	max := big.NewInt(int64(len(passwordKeyspace)))
	out := make([]byte, generatedPasswordLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = passwordKeyspace[n.Int64()]
	}
	return string(out), nil
}

// GenerateAPIKey returns a new 32-character hex API key (16 random bytes).
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
