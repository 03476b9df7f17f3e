package valueobject

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidUsername = errors.New("username must be 3-20 characters, start with a letter and contain only lowercase letters, digits, underscore or dash")
	ErrInvalidEmail    = errors.New("email address is not valid")
	ErrInvalidPassword = errors.New("password must be 8-64 characters")
)

var (
	validate        = validator.New()
	usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{2,19}$`)
)

// Username is the external user handle, unique across all users.
type Username string

// NewUsername normalizes and validates a raw handle.
func NewUsername(s string) (Username, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !usernamePattern.MatchString(s) {
		return "", ErrInvalidUsername
	}
	return Username(s), nil
}

func (u Username) String() string { return string(u) }

// EmailAddress is a validated, normalized email address.
type EmailAddress string

// NewEmailAddress normalizes and validates a raw email address.
func NewEmailAddress(s string) (EmailAddress, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if err := validate.Var(s, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return EmailAddress(s), nil
}

func (e EmailAddress) String() string { return string(e) }

// Password holds a validated plaintext password. It is never persisted;
// only its bcrypt digest leaves the domain layer.
type Password struct {
	plain string
}

// NewPassword validates a raw plaintext password.
func NewPassword(s string) (Password, error) {
	if err := validate.Var(s, "required,min=8,max=64"); err != nil {
		return Password{}, ErrInvalidPassword
	}
	return Password{plain: s}, nil
}

// Plain returns the plaintext. Callers digest it immediately; it must not
// appear in logs or results.
func (p Password) Plain() string { return p.plain }

// String redacts the plaintext so accidental formatting cannot leak it.
func (p Password) String() string { return "[redacted]" }
