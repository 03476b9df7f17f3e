package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auctionlabs/command-server/internal/domain/repository"
)

// ConstraintSet is a durable uniqueness registry backed by the
// constraint_entries table. Unique indexes on username and email make
// check-then-insert atomic at the database; the pre-insert pair lookup only
// refines the reported error to the combo kind.
type ConstraintSet struct {
	pool *pgxpool.Pool
}

func NewConstraintSet(pool *pgxpool.Pool) *ConstraintSet {
	return &ConstraintSet{pool: pool}
}

func (s *ConstraintSet) Reserve(ctx context.Context, username, email, aggregateID string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM constraint_entries WHERE username = $1 AND email = $2
			)
		`, username, email).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check pair: %w", err)
		}
		if exists {
			return repository.ErrUsernameEmailComboExists
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO constraint_entries (username, email, aggregate_id)
			VALUES ($1, $2, $3)
		`, username, email, aggregateID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				if strings.Contains(pgErr.ConstraintName, "email") {
					return repository.ErrEmailExists
				}
				return repository.ErrUsernameExists
			}
			return fmt.Errorf("insert reservation: %w", err)
		}
		return nil
	})
}

func (s *ConstraintSet) Release(ctx context.Context, username, email string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM constraint_entries WHERE username = $1 AND email = $2
	`, username, email)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}

var _ repository.ConstraintSet = (*ConstraintSet)(nil)
