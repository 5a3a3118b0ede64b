/**
 * @description
 * This package implements the data access layer. All SQL lives here; the
 * service layer depends on narrow interfaces it defines itself and this
 * repository satisfies them against the Supabase-hosted Postgres.
 *
 * Sentinel errors defined here let handlers map persistence failures onto
 * the correct HTTP status without inspecting SQL state themselves.
 */
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors surfaced by repository methods.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrder       = errors.New("order id already exists")
	ErrBillingKeyNotFound   = errors.New("billing key not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Repository handles database operations for payments, billing keys and
// subscriptions.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
