package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/set-night/clickpulse/internal/domain"
)

// Postgres error codes treated as write conflicts.
const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
)

// classify maps driver errors onto the domain taxonomy, keeping the original
// error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStoreConflict) || errors.Is(err, domain.ErrStoreTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrStoreTimeout, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgCheckViolation, pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s (%s)", domain.ErrStoreConflict, pgErr.ConstraintName, pgErr.Code)
		case pgQueryCanceled:
			return fmt.Errorf("%w: %w", domain.ErrStoreTimeout, err)
		}
	}
	return err
}

// notFound turns pgx.ErrNoRows into the given sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return classify(err)
}
