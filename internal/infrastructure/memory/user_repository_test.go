package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/auctionlabs/command-server/internal/domain/entity"
	"github.com/auctionlabs/command-server/internal/domain/repository"
	"github.com/auctionlabs/command-server/internal/domain/valueobject"
)

const testID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

func registerUser(t *testing.T, id string) *entity.User {
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
	u, err := entity.Register(id, username, password, email)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return u
}

func TestAddAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	u := registerUser(t, testID)

	if err := repo.Add(ctx, u); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := len(u.Changes()); got != 0 {
		t.Errorf("uncommitted changes after Add = %d, want 0", got)
	}

	loaded, err := repo.Load(ctx, testID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID() != testID {
		t.Errorf("ID = %q, want %q", loaded.ID(), testID)
	}
	if loaded.Username().String() != "alice" {
		t.Errorf("Username = %q, want alice", loaded.Username())
	}
	if loaded.Version() != 1 {
		t.Errorf("Version = %d, want 1", loaded.Version())
	}
}

func TestLoadUnknownAggregate(t *testing.T) {
	repo := NewUserRepository()
	if _, err := repo.Load(context.Background(), testID); !errors.Is(err, repository.ErrAggregateNotFound) {
		t.Fatalf("err = %v, want ErrAggregateNotFound", err)
	}
}

func TestAddDuplicateAggregate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	if err := repo.Add(ctx, registerUser(t, testID)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Add(ctx, registerUser(t, testID)); !errors.Is(err, repository.ErrDuplicateAggregate) {
		t.Fatalf("err = %v, want ErrDuplicateAggregate", err)
	}
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	if err := repo.Add(ctx, registerUser(t, testID)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	u, err := repo.Load(ctx, testID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loadedVersion := u.Version()
	if err := u.VerifyEmail(u.SecurityToken()); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if err := repo.Save(ctx, u, loadedVersion); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stream := repo.Stream(testID)
	if len(stream) != 2 {
		t.Fatalf("stream length = %d, want 2", len(stream))
	}
	for i, env := range stream {
		if env.Version != i+1 {
			t.Errorf("stream[%d].Version = %d, want %d", i, env.Version, i+1)
		}
	}
}

func TestSaveStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	if err := repo.Add(ctx, registerUser(t, testID)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Two sessions load the same version; the second save must lose.
	first, err := repo.Load(ctx, testID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := repo.Load(ctx, testID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	firstVersion, secondVersion := first.Version(), second.Version()

	if err := first.VerifyEmail(first.SecurityToken()); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if err := repo.Save(ctx, first, firstVersion); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := second.VerifyEmail(second.SecurityToken()); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if err := repo.Save(ctx, second, secondVersion); !errors.Is(err, repository.ErrConcurrencyConflict) {
		t.Fatalf("err = %v, want ErrConcurrencyConflict", err)
	}

	if got := len(repo.Stream(testID)); got != 2 {
		t.Errorf("stream length = %d, want 2 (losing save must not append)", got)
	}
}

func TestConcurrentSaveSingleWinner(t *testing.T) {
	const n = 8
	ctx := context.Background()
	repo := NewUserRepository()
	if err := repo.Add(ctx, registerUser(t, testID)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// All sessions load the same version before any of them saves.
	users := make([]*entity.User, n)
	for i := range users {
		u, err := repo.Load(ctx, testID)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if err := u.VerifyEmail(u.SecurityToken()); err != nil {
			t.Fatalf("VerifyEmail: %v", err)
		}
		users[i] = u
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Save(ctx, users[i], 1)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, repository.ErrConcurrencyConflict):
			lost++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("winners = %d, want exactly 1", won)
	}
	if lost != n-1 {
		t.Errorf("losers = %d, want %d", lost, n-1)
	}
}
