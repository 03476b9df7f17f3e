package repository

import (
	"context"
	"errors"

	"github.com/auctionlabs/command-server/internal/domain/entity"
)

var (
	// ErrAggregateNotFound indicates no events exist for the identifier.
	ErrAggregateNotFound = errors.New("aggregate not found")
	// ErrDuplicateAggregate indicates the identifier already has persisted events.
	ErrDuplicateAggregate = errors.New("aggregate already exists")
	// ErrConcurrencyConflict indicates the stored version moved since load.
	// Callers may reload and retry.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrUsernameExists indicates the username is already reserved.
	ErrUsernameExists = errors.New("username is already taken")
	// ErrEmailExists indicates the email is already reserved.
	ErrEmailExists = errors.New("email is already registered")
	// ErrUsernameEmailComboExists indicates the exact (username, email) pair
	// is already reserved.
	ErrUsernameEmailComboExists = errors.New("username and email combination is already registered")
)

// UserRepository is the event-sourced load/save abstraction over the user
// aggregate. It performs no business validation.
type UserRepository interface {
	// Load replays all persisted events for id in original order.
	Load(ctx context.Context, id string) (*entity.User, error)
	// Add persists a brand-new aggregate's initial events.
	Add(ctx context.Context, u *entity.User) error
	// Save appends the aggregate's uncommitted events only if the stored
	// version still equals expectedVersion.
	Save(ctx context.Context, u *entity.User, expectedVersion int) error
}

// ConstraintSet reserves identity attributes across aggregates that do not
// exist yet. Reserve is atomic: two calls with an overlapping username or
// email serialize such that at most one succeeds. Failure precedence is
// combo, then username, then email.
type ConstraintSet interface {
	Reserve(ctx context.Context, username, email, aggregateID string) error
	// Release removes a reservation, compensating for a failed aggregate
	// persist after a successful Reserve.
	Release(ctx context.Context, username, email string) error
}
