/**
 * @description
 * Repository methods for the billing_keys table. Keys are deactivated rather
 * than deleted when superseded so historical subscription payments keep a
 * valid reference.
 */
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
)

const billingKeyColumns = `
    id, user_id, billing_key, customer_key,
    card_company, card_number, card_type, owner_type,
    authenticated_at, is_active, created_at
`

func scanBillingKey(row pgx.Row) (*domain.BillingKey, error) {
	var bk domain.BillingKey
	err := row.Scan(
		&bk.ID,
		&bk.UserID,
		&bk.BillingKey,
		&bk.CustomerKey,
		&bk.CardCompany,
		&bk.CardNumber,
		&bk.CardType,
		&bk.OwnerType,
		&bk.AuthenticatedAt,
		&bk.IsActive,
		&bk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bk, nil
}

// CreateBillingKey persists a newly issued billing key and returns the
// stored row.
func (r *Repository) CreateBillingKey(ctx context.Context, bk *domain.BillingKey) (*domain.BillingKey, error) {
	query := `
        INSERT INTO billing_keys (user_id, billing_key, customer_key,
            card_company, card_number, card_type, owner_type, authenticated_at, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
        RETURNING ` + billingKeyColumns
	return scanBillingKey(r.db.QueryRow(ctx, query,
		bk.UserID,
		bk.BillingKey,
		bk.CustomerKey,
		bk.CardCompany,
		bk.CardNumber,
		bk.CardType,
		bk.OwnerType,
		bk.AuthenticatedAt,
	))
}

// GetActiveBillingKey retrieves an active billing key by id scoped to its
// owner. Inactive or foreign keys map to ErrBillingKeyNotFound.
func (r *Repository) GetActiveBillingKey(ctx context.Context, userID, billingKeyID string) (*domain.BillingKey, error) {
	query := `SELECT ` + billingKeyColumns + `
        FROM billing_keys
        WHERE id = $1 AND user_id = $2 AND is_active = TRUE`
	bk, err := scanBillingKey(r.db.QueryRow(ctx, query, billingKeyID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillingKeyNotFound
		}
		return nil, err
	}
	return bk, nil
}

// LatestActiveBillingKey returns the most recently created active billing
// key for a user. Creation-time ordering makes this last-created-wins when a
// user has run several issuance flows; callers that already know the key id
// should prefer GetActiveBillingKey.
func (r *Repository) LatestActiveBillingKey(ctx context.Context, userID string) (*domain.BillingKey, error) {
	query := `SELECT ` + billingKeyColumns + `
        FROM billing_keys
        WHERE user_id = $1 AND is_active = TRUE
        ORDER BY created_at DESC
        LIMIT 1`
	bk, err := scanBillingKey(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillingKeyNotFound
		}
		return nil, err
	}
	return bk, nil
}

// DeactivateBillingKeys marks all of a user's active billing keys inactive.
// Called before storing a replacement key.
func (r *Repository) DeactivateBillingKeys(ctx context.Context, userID string) error {
	query := `UPDATE billing_keys SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}
