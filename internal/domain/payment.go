/**
 * @description
 * This file defines the domain model for one-time payments (orders). A payment
 * row is created before the user is handed to the Toss Payments checkout UI so
 * that the server-side amount can be compared against whatever the client
 * reports back at confirmation time.
 */
package domain

import "time"

// Payment statuses. These mirror the status values Toss Payments uses for a
// payment object; only PENDING, DONE and FAILED are assigned by this service.
const (
	PaymentStatusPending    = "PENDING"
	PaymentStatusDone       = "DONE"
	PaymentStatusFailed     = "FAILED"
	PaymentStatusCanceled   = "CANCELED"
	PaymentStatusReady      = "READY"
	PaymentStatusInProgress = "IN_PROGRESS"
)

// Payment represents a single intended or completed one-time payment.
// OrderID is chosen by the caller and must be globally unique; the database
// enforces this with a unique index.
type Payment struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	OrderID           string            `json:"order_id"`
	OrderName         string            `json:"order_name"`
	Amount            int64             `json:"amount"`
	Status            string            `json:"status"`
	PaymentKey        *string           `json:"payment_key,omitempty"`
	Method            *string           `json:"method,omitempty"`
	CardCompany       *string           `json:"card_company,omitempty"`
	CardNumber        *string           `json:"card_number,omitempty"`
	CardType          *string           `json:"card_type,omitempty"`
	InstallmentMonths int               `json:"installment_months"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty"`
	ReceiptURL        *string           `json:"receipt_url,omitempty"`
	FailureCode       *string           `json:"failure_code,omitempty"`
	FailureMessage    *string           `json:"failure_message,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// PaymentUpdate carries the mutable fields written back onto a payment row
// after the provider has accepted or rejected the confirmation call.
type PaymentUpdate struct {
	Status            string
	PaymentKey        *string
	Method            *string
	CardCompany       *string
	CardNumber        *string
	CardType          *string
	InstallmentMonths int
	ApprovedAt        *time.Time
	ReceiptURL        *string
	FailureCode       *string
	FailureMessage    *string
}
