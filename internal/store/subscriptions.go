/**
 * @description
 * Repository methods for subscriptions and their append-only payment attempt
 * log. Billing-cycle bookkeeping (period bounds, next billing date) is only
 * ever written through AdvanceSubscriptionPeriod after a successful charge.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
)

const subscriptionColumns = `
    id, user_id, billing_key_id, plan_id, plan_name, amount, billing_cycle,
    status, current_period_start, current_period_end, next_billing_date, created_at
`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.BillingKeyID,
		&s.PlanID,
		&s.PlanName,
		&s.Amount,
		&s.BillingCycle,
		&s.Status,
		&s.CurrentPeriodStart,
		&s.CurrentPeriodEnd,
		&s.NextBillingDate,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSubscription inserts a PENDING subscription for a plan selection.
func (r *Repository) CreateSubscription(ctx context.Context, userID, billingKeyID string, plan domain.Plan) (*domain.Subscription, error) {
	query := `
        INSERT INTO subscriptions (user_id, billing_key_id, plan_id, plan_name, amount, billing_cycle, status)
        VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
        RETURNING ` + subscriptionColumns
	return scanSubscription(r.db.QueryRow(ctx, query,
		userID, billingKeyID, plan.ID, plan.Name, plan.Amount, plan.BillingCycle,
	))
}

// GetSubscription retrieves a subscription by id.
func (r *Repository) GetSubscription(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, subscriptionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// GetSubscriptionByUserID retrieves the most recent subscription for a user.
func (r *Repository) GetSubscriptionByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
        FROM subscriptions
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT 1`
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// AdvanceSubscriptionPeriod marks a subscription ACTIVE and moves its
// billing window forward after a successful charge.
func (r *Repository) AdvanceSubscriptionPeriod(ctx context.Context, subscriptionID string, periodStart, nextBillingDate time.Time) error {
	query := `
        UPDATE subscriptions SET
            status = 'ACTIVE',
            current_period_start = $2,
            current_period_end = $3,
            next_billing_date = $3
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, subscriptionID, periodStart, nextBillingDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// UpdateSubscriptionStatus sets a subscription's status. Transitions out of
// a terminal status are refused at the database level.
func (r *Repository) UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string) error {
	query := `
        UPDATE subscriptions SET status = $2
        WHERE id = $1 AND status NOT IN ('FAILED', 'CANCELED', 'EXPIRED')
    `
	tag, err := r.db.Exec(ctx, query, subscriptionID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// GetSubscriptionsDueForBilling returns ACTIVE subscriptions whose next
// billing date has passed, for the recurring billing job.
func (r *Repository) GetSubscriptionsDueForBilling(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
        FROM subscriptions
        WHERE status = 'ACTIVE' AND next_billing_date IS NOT NULL AND next_billing_date <= $1
        ORDER BY next_billing_date ASC`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// CreateSubscriptionPayment appends one charge attempt to the log.
func (r *Repository) CreateSubscriptionPayment(ctx context.Context, attempt *domain.SubscriptionPayment) error {
	query := `
        INSERT INTO subscription_payments
            (subscription_id, user_id, payment_key, order_id, amount, status,
             failure_code, failure_message, retry_count, approved_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.db.Exec(ctx, query,
		attempt.SubscriptionID,
		attempt.UserID,
		attempt.PaymentKey,
		attempt.OrderID,
		attempt.Amount,
		attempt.Status,
		attempt.FailureCode,
		attempt.FailureMessage,
		attempt.RetryCount,
		attempt.ApprovedAt,
	)
	return err
}

// CountSubscriptionPayments returns the number of attempts already recorded
// for a subscription, used to populate retry_count on the next attempt.
func (r *Repository) CountSubscriptionPayments(ctx context.Context, subscriptionID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM subscription_payments WHERE subscription_id = $1`
	if err := r.db.QueryRow(ctx, query, subscriptionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
