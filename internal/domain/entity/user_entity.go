package entity

import (
	"errors"
	"fmt"

	"github.com/auctionlabs/command-server/internal/domain/event"
	"github.com/auctionlabs/command-server/internal/domain/valueobject"
	"github.com/auctionlabs/command-server/pkg/helpers"
)

var (
	// ErrPasswordMismatch indicates the supplied old password does not match
	// the stored digest.
	ErrPasswordMismatch = errors.New("old password does not match")
	// ErrEmailVerificationFailed indicates a wrong security token.
	ErrEmailVerificationFailed = errors.New("security token does not match")
	// ErrAlreadyVerified indicates an attempt to verify a user twice.
	ErrAlreadyVerified = errors.New("user email is already verified")
)

// Status is the verification state of a user.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusVerified   Status = "verified"
)

// User is the event-sourced aggregate root for the user domain. State only
// changes by applying domain events; mutating operations validate against the
// current state and record the resulting event, or fail without side effects.
type User struct {
	id             string
	username       valueobject.Username
	email          valueobject.EmailAddress
	passwordDigest string
	status         Status
	securityToken  string

	version int
	changes []event.Envelope
}

// Register creates a fresh aggregate. It digests the password, generates the
// email verification token and records the initial UserRegistered event.
func Register(id string, username valueobject.Username, password valueobject.Password, email valueobject.EmailAddress) (*User, error) {
	digest, err := helpers.HashPassword(password.Plain())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token, err := helpers.NewSecurityToken()
	if err != nil {
		return nil, fmt.Errorf("generate security token: %w", err)
	}

	u := &User{}
	env, err := event.NewEnvelope(id, 1, event.TypeUserRegistered, event.UserRegistered{
		Username:       username.String(),
		Email:          email.String(),
		PasswordDigest: digest,
		SecurityToken:  token,
	})
	if err != nil {
		return nil, err
	}
	u.changes = append(u.changes, env)
	if err := u.apply(env); err != nil {
		return nil, err
	}
	return u, nil
}

// Replay reconstructs an aggregate by left-folding the ordered event stream
// over the zero state.
func Replay(envs []event.Envelope) (*User, error) {
	if len(envs) == 0 {
		return nil, errors.New("empty event stream")
	}
	u := &User{}
	for _, env := range envs {
		if err := u.apply(env); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// ChangePassword verifies the old password against the stored digest and
// records a PasswordChanged event. Valid in both verification states.
func (u *User) ChangePassword(oldPassword, newPassword valueobject.Password) error {
	if !helpers.CompareHashAndPassword(u.passwordDigest, oldPassword.Plain()) {
		return ErrPasswordMismatch
	}
	newDigest, err := helpers.HashPassword(newPassword.Plain())
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return u.record(event.TypePasswordChanged, event.PasswordChanged{
		OldDigest: u.passwordDigest,
		NewDigest: newDigest,
	})
}

// VerifyEmail checks the security token and records an EmailVerified event.
// Verifying an already verified user fails with ErrAlreadyVerified.
func (u *User) VerifyEmail(token string) error {
	if u.status == StatusVerified {
		return ErrAlreadyVerified
	}
	if token == "" || token != u.securityToken {
		return ErrEmailVerificationFailed
	}
	return u.record(event.TypeEmailVerified, event.EmailVerified{})
}

func (u *User) record(t event.Type, payload any) error {
	env, err := event.NewEnvelope(u.id, u.version+1, t, payload)
	if err != nil {
		return err
	}
	u.changes = append(u.changes, env)
	return u.apply(env)
}

func (u *User) apply(env event.Envelope) error {
	switch env.Type {
	case event.TypeUserRegistered:
		var p event.UserRegistered
		if err := env.Decode(&p); err != nil {
			return err
		}
		u.id = env.AggregateID
		u.username = valueobject.Username(p.Username)
		u.email = valueobject.EmailAddress(p.Email)
		u.passwordDigest = p.PasswordDigest
		u.securityToken = p.SecurityToken
		u.status = StatusUnverified
	case event.TypePasswordChanged:
		var p event.PasswordChanged
		if err := env.Decode(&p); err != nil {
			return err
		}
		u.passwordDigest = p.NewDigest
	case event.TypeEmailVerified:
		u.status = StatusVerified
		u.securityToken = ""
	default:
		return fmt.Errorf("unknown event type %q", env.Type)
	}
	u.version = env.Version
	return nil
}

// ID returns the aggregate identifier in canonical form.
func (u *User) ID() string { return u.id }

// Username returns the external user handle.
func (u *User) Username() valueobject.Username { return u.username }

// Email returns the user's email address.
func (u *User) Email() valueobject.EmailAddress { return u.email }

// Status returns the current verification state.
func (u *User) Status() Status { return u.status }

// SecurityToken returns the pending verification token, empty once verified.
func (u *User) SecurityToken() string { return u.securityToken }

// Version is the version of the last applied event, including uncommitted ones.
func (u *User) Version() int { return u.version }

// Changes returns the events recorded since load or creation, in order.
func (u *User) Changes() []event.Envelope { return u.changes }

// MarkCommitted clears the uncommitted changes after a successful persist.
func (u *User) MarkCommitted() { u.changes = nil }
