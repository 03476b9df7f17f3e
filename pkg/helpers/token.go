package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

const securityTokenBytes = 32

// NewSecurityToken generates a URL-safe random token used in email
// verification links.
func NewSecurityToken() (string, error) {
	b := make([]byte, securityTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
