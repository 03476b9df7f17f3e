package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auctionlabs/command-server/internal/domain/entity"
	"github.com/auctionlabs/command-server/internal/domain/event"
	"github.com/auctionlabs/command-server/internal/domain/repository"
)

const uniqueViolation = "23505"

// UserRepository persists user aggregates as an append-only event stream in
// the user_events table. The primary key (aggregate_id, version) turns
// concurrent appends into unique violations, which surface as optimistic
// concurrency conflicts.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Load(ctx context.Context, id string) (*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT aggregate_id, version, event_type, occurred_at, payload
		FROM user_events
		WHERE aggregate_id = $1
		ORDER BY version
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var envs []event.Envelope
	for rows.Next() {
		var env event.Envelope
		if err := rows.Scan(&env.AggregateID, &env.Version, &env.Type, &env.OccurredAt, &env.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		envs = append(envs, env)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(envs) == 0 {
		return nil, repository.ErrAggregateNotFound
	}
	return entity.Replay(envs)
}

func (r *UserRepository) Add(ctx context.Context, u *entity.User) error {
	if err := r.append(ctx, u.Changes()); err != nil {
		if errors.Is(err, repository.ErrConcurrencyConflict) {
			return repository.ErrDuplicateAggregate
		}
		return err
	}
	u.MarkCommitted()
	return nil
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User, expectedVersion int) error {
	changes := u.Changes()
	if len(changes) == 0 {
		return nil
	}
	if changes[0].Version != expectedVersion+1 {
		return repository.ErrConcurrencyConflict
	}
	if err := r.append(ctx, changes); err != nil {
		return err
	}
	u.MarkCommitted()
	return nil
}

func (r *UserRepository) append(ctx context.Context, envs []event.Envelope) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, env := range envs {
			_, err := tx.Exec(ctx, `
				INSERT INTO user_events (aggregate_id, version, event_type, occurred_at, payload)
				VALUES ($1, $2, $3, $4, $5)
			`, env.AggregateID, env.Version, env.Type, env.OccurredAt, env.Payload)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
					return repository.ErrConcurrencyConflict
				}
				return fmt.Errorf("insert event: %w", err)
			}
		}
		return nil
	})
}

var _ repository.UserRepository = (*UserRepository)(nil)
