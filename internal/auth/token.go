package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewSessionToken returns a 64-character hex token from 32 random bytes.
func NewSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
