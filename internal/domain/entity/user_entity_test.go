package entity

import (
	"errors"
	"reflect"
	"testing"

	"github.com/auctionlabs/command-server/internal/domain/event"
	"github.com/auctionlabs/command-server/internal/domain/valueobject"
	"github.com/auctionlabs/command-server/pkg/helpers"
)

const testID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

func newTestUser(t *testing.T) *User {
	t.Helper()

	username, err := valueobject.NewUsername("alice")
	if err != nil {
		t.Fatalf("NewUsername: %v", err)
	}
	email, err := valueobject.NewEmailAddress("a@x.com")
	if err != nil {
		t.Fatalf("NewEmailAddress: %v", err)
	}
	password, err := valueobject.NewPassword("secret-1")
	if err != nil {
		t.Fatalf("NewPassword: %v", err)
	}

	u, err := Register(testID, username, password, email)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return u
}

func mustPassword(t *testing.T, s string) valueobject.Password {
	t.Helper()
	p, err := valueobject.NewPassword(s)
	if err != nil {
		t.Fatalf("NewPassword(%q): %v", s, err)
	}
	return p
}

func TestRegister(t *testing.T) {
	u := newTestUser(t)

	if u.ID() != testID {
		t.Errorf("ID = %q, want %q", u.ID(), testID)
	}
	if u.Status() != StatusUnverified {
		t.Errorf("Status = %q, want %q", u.Status(), StatusUnverified)
	}
	if u.SecurityToken() == "" {
		t.Error("expected a pending security token")
	}
	if u.Version() != 1 {
		t.Errorf("Version = %d, want 1", u.Version())
	}

	changes := u.Changes()
	if len(changes) != 1 {
		t.Fatalf("got %d uncommitted events, want 1", len(changes))
	}
	if changes[0].Type != event.TypeUserRegistered {
		t.Errorf("event type = %q, want %q", changes[0].Type, event.TypeUserRegistered)
	}

	var p event.UserRegistered
	if err := changes[0].Decode(&p); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Username != "alice" || p.Email != "a@x.com" {
		t.Errorf("payload = %+v", p)
	}
	if !helpers.CompareHashAndPassword(p.PasswordDigest, "secret-1") {
		t.Error("digest does not verify the original password")
	}
	if p.PasswordDigest == "secret-1" {
		t.Error("plaintext password persisted in event")
	}
}

func TestChangePassword(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		u := newTestUser(t)
		if err := u.ChangePassword(mustPassword(t, "secret-1"), mustPassword(t, "secret-2")); err != nil {
			t.Fatalf("ChangePassword: %v", err)
		}
		if u.Version() != 2 {
			t.Errorf("Version = %d, want 2", u.Version())
		}
		// The old password must no longer match.
		if err := u.ChangePassword(mustPassword(t, "secret-1"), mustPassword(t, "whatever-x")); !errors.Is(err, ErrPasswordMismatch) {
			t.Errorf("err = %v, want ErrPasswordMismatch", err)
		}
		if err := u.ChangePassword(mustPassword(t, "secret-2"), mustPassword(t, "secret-3")); err != nil {
			t.Errorf("new password rejected: %v", err)
		}
	})

	t.Run("mismatch does not mutate", func(t *testing.T) {
		u := newTestUser(t)
		if err := u.ChangePassword(mustPassword(t, "wrong-password"), mustPassword(t, "secret-2")); !errors.Is(err, ErrPasswordMismatch) {
			t.Fatalf("err = %v, want ErrPasswordMismatch", err)
		}
		if u.Version() != 1 {
			t.Errorf("Version = %d, want 1 (no event emitted)", u.Version())
		}
		if err := u.ChangePassword(mustPassword(t, "secret-1"), mustPassword(t, "secret-2")); err != nil {
			t.Errorf("original password no longer matches: %v", err)
		}
	})

	t.Run("allowed after verification", func(t *testing.T) {
		u := newTestUser(t)
		if err := u.VerifyEmail(u.SecurityToken()); err != nil {
			t.Fatalf("VerifyEmail: %v", err)
		}
		if err := u.ChangePassword(mustPassword(t, "secret-1"), mustPassword(t, "secret-2")); err != nil {
			t.Errorf("ChangePassword after verify: %v", err)
		}
	})
}

func TestVerifyEmail(t *testing.T) {
	t.Run("correct token", func(t *testing.T) {
		u := newTestUser(t)
		if err := u.VerifyEmail(u.SecurityToken()); err != nil {
			t.Fatalf("VerifyEmail: %v", err)
		}
		if u.Status() != StatusVerified {
			t.Errorf("Status = %q, want %q", u.Status(), StatusVerified)
		}
		if u.SecurityToken() != "" {
			t.Error("security token not cleared on verification")
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		u := newTestUser(t)
		if err := u.VerifyEmail("not-the-token"); !errors.Is(err, ErrEmailVerificationFailed) {
			t.Fatalf("err = %v, want ErrEmailVerificationFailed", err)
		}
		if u.Status() != StatusUnverified {
			t.Errorf("Status = %q, want %q", u.Status(), StatusUnverified)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		u := newTestUser(t)
		if err := u.VerifyEmail(""); !errors.Is(err, ErrEmailVerificationFailed) {
			t.Fatalf("err = %v, want ErrEmailVerificationFailed", err)
		}
	})

	t.Run("already verified", func(t *testing.T) {
		u := newTestUser(t)
		token := u.SecurityToken()
		if err := u.VerifyEmail(token); err != nil {
			t.Fatalf("VerifyEmail: %v", err)
		}
		before := u.Version()
		if err := u.VerifyEmail(token); !errors.Is(err, ErrAlreadyVerified) {
			t.Fatalf("err = %v, want ErrAlreadyVerified", err)
		}
		if u.Version() != before {
			t.Error("re-verification emitted an event")
		}
	})
}

func TestReplay(t *testing.T) {
	u := newTestUser(t)
	if err := u.ChangePassword(mustPassword(t, "secret-1"), mustPassword(t, "secret-2")); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if err := u.VerifyEmail(u.SecurityToken()); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	stream := u.Changes()

	first, err := Replay(stream)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	second, err := Replay(stream)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	// Replay is deterministic: two loads of the same stream agree.
	if !reflect.DeepEqual(first, second) {
		t.Errorf("replayed states differ: %+v vs %+v", first, second)
	}
	if first.Status() != StatusVerified {
		t.Errorf("Status = %q, want %q", first.Status(), StatusVerified)
	}
	if first.Version() != 3 {
		t.Errorf("Version = %d, want 3", first.Version())
	}
	if len(first.Changes()) != 0 {
		t.Error("replayed aggregate has uncommitted changes")
	}

	// Versions are contiguous starting at 1.
	for i, env := range stream {
		if env.Version != i+1 {
			t.Errorf("event %d has version %d", i, env.Version)
		}
		if env.AggregateID != testID {
			t.Errorf("event %d has aggregate id %q", i, env.AggregateID)
		}
	}
}

func TestReplayEmptyStream(t *testing.T) {
	if _, err := Replay(nil); err == nil {
		t.Fatal("expected error for empty stream")
	}
}

func TestReplayUnknownEventType(t *testing.T) {
	env, err := event.NewEnvelope(testID, 1, event.Type("user.promoted"), struct{}{})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if _, err := Replay([]event.Envelope{env}); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
