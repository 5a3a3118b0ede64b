/**
 * @description
 * Domain models for subscriptions and their payment attempts. A subscription
 * references the billing key it charges against and carries the billing-cycle
 * bookkeeping (current period, next billing date) that is advanced after each
 * successful charge.
 */
package domain

import "time"

// Billing cycles.
const (
	BillingCycleMonthly = "MONTHLY"
	BillingCycleYearly  = "YEARLY"
)

// Subscription statuses. PENDING is assigned at creation; the first
// successful charge moves the subscription to ACTIVE. FAILED, CANCELED and
// EXPIRED are terminal.
const (
	SubscriptionStatusPending  = "PENDING"
	SubscriptionStatusActive   = "ACTIVE"
	SubscriptionStatusPaused   = "PAUSED"
	SubscriptionStatusCanceled = "CANCELED"
	SubscriptionStatusExpired  = "EXPIRED"
	SubscriptionStatusFailed   = "FAILED"
)

// Subscription represents a recurring billing agreement for a user.
type Subscription struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	BillingKeyID       string     `json:"billing_key_id"`
	PlanID             string     `json:"plan_id"`
	PlanName           string     `json:"plan_name"`
	Amount             int64      `json:"amount"`
	BillingCycle       string     `json:"billing_cycle"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	NextBillingDate    *time.Time `json:"next_billing_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// SubscriptionPayment is one charge attempt against a subscription. Rows are
// append-only; an attempt is never mutated after creation.
type SubscriptionPayment struct {
	ID             string     `json:"id"`
	SubscriptionID string     `json:"subscription_id"`
	UserID         string     `json:"user_id"`
	PaymentKey     *string    `json:"payment_key,omitempty"`
	OrderID        string     `json:"order_id"`
	Amount         int64      `json:"amount"`
	Status         string     `json:"status"`
	FailureCode    *string    `json:"failure_code,omitempty"`
	FailureMessage *string    `json:"failure_message,omitempty"`
	RetryCount     int        `json:"retry_count"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Plan describes a purchasable subscription plan.
type Plan struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Amount       int64  `json:"amount"`
	BillingCycle string `json:"billing_cycle"`
}

// Plans available for checkout. Mirrors the plan table shown on the pricing
// page; amounts are in KRW.
var Plans = map[string]Plan{
	"monthly": {ID: "monthly", Name: "월간 구독", Amount: 49000, BillingCycle: BillingCycleMonthly},
	"yearly":  {ID: "yearly", Name: "연간 구독", Amount: 390000, BillingCycle: BillingCycleYearly},
}

// IsTerminalSubscriptionStatus reports whether no further transitions may
// leave the given status.
func IsTerminalSubscriptionStatus(status string) bool {
	switch status {
	case SubscriptionStatusFailed, SubscriptionStatusCanceled, SubscriptionStatusExpired:
		return true
	}
	return false
}
