package memory

import (
	"context"
	"sync"

	"github.com/auctionlabs/command-server/internal/domain/entity"
	"github.com/auctionlabs/command-server/internal/domain/event"
	"github.com/auctionlabs/command-server/internal/domain/repository"
)

// UserRepository is an in-memory event store keyed by aggregate identifier.
// Streams are append-only; versions are contiguous starting at 1.
type UserRepository struct {
	mu      sync.RWMutex
	streams map[string][]event.Envelope
}

func NewUserRepository() *UserRepository {
	return &UserRepository{streams: make(map[string][]event.Envelope)}
}

func (r *UserRepository) Load(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	stream, ok := r.streams[id]
	envs := make([]event.Envelope, len(stream))
	copy(envs, stream)
	r.mu.RUnlock()

	if !ok {
		return nil, repository.ErrAggregateNotFound
	}
	return entity.Replay(envs)
}

func (r *UserRepository) Add(_ context.Context, u *entity.User) error {
	changes := u.Changes()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.streams[u.ID()]; ok {
		return repository.ErrDuplicateAggregate
	}
	r.streams[u.ID()] = append([]event.Envelope(nil), changes...)
	u.MarkCommitted()
	return nil
}

func (r *UserRepository) Save(_ context.Context, u *entity.User, expectedVersion int) error {
	changes := u.Changes()
	if len(changes) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stream, ok := r.streams[u.ID()]
	if !ok {
		return repository.ErrAggregateNotFound
	}
	if len(stream) != expectedVersion {
		return repository.ErrConcurrencyConflict
	}
	r.streams[u.ID()] = append(stream, changes...)
	u.MarkCommitted()
	return nil
}

// Stream returns a copy of the persisted events for id, in order. Used by
// tests to assert version contiguity.
func (r *UserRepository) Stream(id string) []event.Envelope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]event.Envelope(nil), r.streams[id]...)
}

var _ repository.UserRepository = (*UserRepository)(nil)
