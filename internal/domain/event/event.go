package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of a user domain event.
type Type string

const (
	// TypeUserRegistered records the creation of a user aggregate.
	TypeUserRegistered Type = "user.registered"
	// TypePasswordChanged records a password digest change.
	TypePasswordChanged Type = "user.password_changed"
	// TypeEmailVerified records a successful email verification.
	TypeEmailVerified Type = "user.email_verified"
)

// Envelope is an immutable persisted record of a domain event. Replaying the
// ordered envelopes of an aggregate deterministically reconstructs its state.
type Envelope struct {
	// AggregateID is the aggregate this event belongs to.
	AggregateID string
	// Version is the event position within the aggregate stream (starts at 1,
	// contiguous, no gaps).
	Version int
	// Type identifies the payload shape.
	Type Type
	// OccurredAt is when the event was produced.
	OccurredAt time.Time
	// Payload holds event-specific data as JSON.
	Payload []byte
}

// UserRegistered is the payload of the initial event of every user aggregate.
type UserRegistered struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	PasswordDigest string `json:"password_digest"`
	SecurityToken  string `json:"security_token"`
}

// PasswordChanged carries the old and new bcrypt digests. Plaintext passwords
// are never part of an event.
type PasswordChanged struct {
	OldDigest string `json:"old_digest"`
	NewDigest string `json:"new_digest"`
}

// EmailVerified marks the transition to the verified state.
type EmailVerified struct{}

// NewEnvelope wraps a payload into a persistable envelope.
func NewEnvelope(aggregateID string, version int, t Type, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Envelope{
		AggregateID: aggregateID,
		Version:     version,
		Type:        t,
		OccurredAt:  time.Now().UTC(),
		Payload:     b,
	}, nil
}

// Decode unmarshals the payload into dst.
func (e Envelope) Decode(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
