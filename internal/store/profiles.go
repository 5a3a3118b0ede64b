/**
 * @description
 * Repository methods for the profiles table. Profiles are written by the
 * Supabase signup trigger; this service only reads them to resolve the
 * customer key bound to an authenticated user.
 */
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
)

// GetProfile retrieves a user's profile by their auth user id.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	query := `SELECT id, email, customer_key, created_at FROM profiles WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.ID, &p.Email, &p.CustomerKey, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}
