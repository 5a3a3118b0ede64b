/**
 * @description
 * Repository methods for the payments table. An order row is inserted before
 * the client opens the provider's checkout UI and updated exactly once with
 * the terminal outcome of the confirmation call.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
)

const paymentColumns = `
    id, user_id, order_id, order_name, amount, status,
    payment_key, method, card_company, card_number, card_type,
    installment_months, approved_at, receipt_url,
    failure_code, failure_message, metadata, created_at
`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var metadata []byte
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.OrderID,
		&p.OrderName,
		&p.Amount,
		&p.Status,
		&p.PaymentKey,
		&p.Method,
		&p.CardCompany,
		&p.CardNumber,
		&p.CardType,
		&p.InstallmentMonths,
		&p.ApprovedAt,
		&p.ReceiptURL,
		&p.FailureCode,
		&p.FailureMessage,
		&metadata,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode payment metadata: %w", err)
		}
	}
	return &p, nil
}

// CreatePayment inserts a PENDING payment row for an order. A duplicate
// order id maps to ErrDuplicateOrder.
func (r *Repository) CreatePayment(ctx context.Context, userID, orderID, orderName string, amount int64, metadata map[string]string) (*domain.Payment, error) {
	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payment metadata: %w", err)
		}
	}

	query := `
        INSERT INTO payments (user_id, order_id, order_name, amount, status, metadata)
        VALUES ($1, $2, $3, $4, 'PENDING', $5)
        RETURNING ` + paymentColumns
	payment, err := scanPayment(r.db.QueryRow(ctx, query, userID, orderID, orderName, amount, metadataJSON))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOrder
		}
		return nil, err
	}
	return payment, nil
}

// GetPaymentByOrderID retrieves a payment by order id scoped to its owner.
func (r *Repository) GetPaymentByOrderID(ctx context.Context, userID, orderID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 AND user_id = $2`
	payment, err := scanPayment(r.db.QueryRow(ctx, query, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return payment, nil
}

// UpdatePaymentResult writes the terminal outcome of a confirmation call
// onto the payment row.
func (r *Repository) UpdatePaymentResult(ctx context.Context, paymentID string, update domain.PaymentUpdate) error {
	query := `
        UPDATE payments SET
            status = $2,
            payment_key = COALESCE($3, payment_key),
            method = COALESCE($4, method),
            card_company = COALESCE($5, card_company),
            card_number = COALESCE($6, card_number),
            card_type = COALESCE($7, card_type),
            installment_months = $8,
            approved_at = COALESCE($9, approved_at),
            receipt_url = COALESCE($10, receipt_url),
            failure_code = $11,
            failure_message = $12
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query,
		paymentID,
		update.Status,
		update.PaymentKey,
		update.Method,
		update.CardCompany,
		update.CardNumber,
		update.CardType,
		update.InstallmentMonths,
		update.ApprovedAt,
		update.ReceiptURL,
		update.FailureCode,
		update.FailureMessage,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
