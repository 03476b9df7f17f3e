package helpers

import "golang.org/x/crypto/bcrypt"

// HashPassword digests a plaintext password with bcrypt. The digest embeds
// the salt and cost needed to verify a later plaintext.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword reports whether plain matches the bcrypt digest.
func CompareHashAndPassword(digest string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
