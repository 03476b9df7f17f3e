package identifier

import (
	"errors"

	"github.com/google/uuid"
)

// ErrMalformed indicates a string that is not a canonical aggregate identifier.
var ErrMalformed = errors.New("malformed aggregate identifier")

// Factory generates and parses aggregate identifiers. Pluggable so tests can
// supply deterministic identifiers.
type Factory interface {
	// New returns a fresh, collision-resistant identifier in canonical form.
	New() string
	// Parse validates the external string form and returns the canonical form.
	Parse(s string) (string, error)
}

// UUIDFactory issues random UUID identifiers.
type UUIDFactory struct{}

func (UUIDFactory) New() string {
	return uuid.NewString()
}

func (UUIDFactory) Parse(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", ErrMalformed
	}
	return id.String(), nil
}
