package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// csrfTokenBytes is the entropy of a CSRF token; hex encoding doubles the length.
const csrfTokenBytes = 32

// NewCSRFToken generates a cryptographically random 64-character hex token.
func NewCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
