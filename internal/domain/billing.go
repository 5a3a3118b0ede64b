/**
 * @description
 * Domain model for billing keys. A billing key is a reusable charge token
 * issued by Toss Payments for a (customer key, card) pair; the raw token is
 * stored server-side only and is never returned to clients.
 */
package domain

import "time"

// BillingKey represents a stored reusable charge token for a user.
// Superseded keys are deactivated, never deleted, so past subscription
// payment rows keep a valid reference.
type BillingKey struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	BillingKey      string     `json:"-"`
	CustomerKey     string     `json:"customer_key"`
	CardCompany     *string    `json:"card_company,omitempty"`
	CardNumber      *string    `json:"card_number,omitempty"`
	CardType        *string    `json:"card_type,omitempty"`
	OwnerType       *string    `json:"owner_type,omitempty"`
	AuthenticatedAt *time.Time `json:"authenticated_at,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// BillingKeySummary is the client-safe view of an issued billing key.
// Only card metadata is exposed.
type BillingKeySummary struct {
	CardCompany     *string    `json:"cardCompany,omitempty"`
	CardNumber      *string    `json:"cardNumber,omitempty"`
	CardType        *string    `json:"cardType,omitempty"`
	AuthenticatedAt *time.Time `json:"authenticatedAt,omitempty"`
}
