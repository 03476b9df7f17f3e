package memory

import (
	"context"
	"sync"

	"github.com/auctionlabs/command-server/internal/domain/repository"
)

type pairKey struct {
	username string
	email    string
}

// ConstraintSet is a process-local uniqueness registry. Check-then-insert
// runs under a single exclusive critical section; contention resolves by
// immediate success or failure, never by queuing.
type ConstraintSet struct {
	mu        sync.Mutex
	pairs     map[pairKey]string
	usernames map[string]string
	emails    map[string]string
}

func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{
		pairs:     make(map[pairKey]string),
		usernames: make(map[string]string),
		emails:    make(map[string]string),
	}
}

func (s *ConstraintSet) Reserve(_ context.Context, username, email, aggregateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pairs[pairKey{username, email}]; ok {
		return repository.ErrUsernameEmailComboExists
	}
	if _, ok := s.usernames[username]; ok {
		return repository.ErrUsernameExists
	}
	if _, ok := s.emails[email]; ok {
		return repository.ErrEmailExists
	}

	s.pairs[pairKey{username, email}] = aggregateID
	s.usernames[username] = aggregateID
	s.emails[email] = aggregateID
	return nil
}

func (s *ConstraintSet) Release(_ context.Context, username, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pairs, pairKey{username, email})
	delete(s.usernames, username)
	delete(s.emails, email)
	return nil
}

var _ repository.ConstraintSet = (*ConstraintSet)(nil)
