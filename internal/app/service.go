/**
 * @description
 * This file contains the core business logic of the service: the payment and
 * billing orchestrators. The `Service` struct sequences calls between the
 * database repository and the Toss Payments API client.
 *
 * Key rules enforced here:
 * - The stored order amount must equal the amount presented at confirmation;
 *   a mismatch is rejected before the provider is contacted.
 * - Charges only run against an active billing key owned by the caller.
 * - Persistence failures that occur after a successful provider call are
 *   logged, never surfaced: a user is never told a successful payment failed.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For generated order ids.
 * - internal/domain, internal/store, pkg/tossclient.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
	"github.com/chiwonkim111/vibecoding-backend/pkg/tossclient"
)

// Errors returned by the orchestrators. Provider rejections are returned as
// *tossclient.APIError and pass through untouched.
var (
	ErrAmountMismatch      = errors.New("payment amount does not match the stored order")
	ErrCustomerKeyMismatch = errors.New("customer key does not match the caller's profile")
	ErrUnknownPlan         = errors.New("unknown subscription plan")
)

// Repository defines the database operations the service needs.
type Repository interface {
	CreatePayment(ctx context.Context, userID, orderID, orderName string, amount int64, metadata map[string]string) (*domain.Payment, error)
	GetPaymentByOrderID(ctx context.Context, userID, orderID string) (*domain.Payment, error)
	UpdatePaymentResult(ctx context.Context, paymentID string, update domain.PaymentUpdate) error

	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)

	CreateBillingKey(ctx context.Context, bk *domain.BillingKey) (*domain.BillingKey, error)
	GetActiveBillingKey(ctx context.Context, userID, billingKeyID string) (*domain.BillingKey, error)
	LatestActiveBillingKey(ctx context.Context, userID string) (*domain.BillingKey, error)
	DeactivateBillingKeys(ctx context.Context, userID string) error

	CreateSubscription(ctx context.Context, userID, billingKeyID string, plan domain.Plan) (*domain.Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*domain.Subscription, error)
	GetSubscriptionByUserID(ctx context.Context, userID string) (*domain.Subscription, error)
	AdvanceSubscriptionPeriod(ctx context.Context, subscriptionID string, periodStart, nextBillingDate time.Time) error
	UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string) error
	CreateSubscriptionPayment(ctx context.Context, attempt *domain.SubscriptionPayment) error
	CountSubscriptionPayments(ctx context.Context, subscriptionID string) (int, error)
}

// PaymentProvider defines the provider operations the service needs, so the
// orchestrators can be tested against a fake without network access.
type PaymentProvider interface {
	ConfirmPayment(ctx context.Context, paymentKey, orderID string, amount int64) (*tossclient.Payment, error)
	IssueBillingKey(ctx context.Context, authKey, customerKey string) (*tossclient.BillingKey, error)
	ChargeBillingKey(ctx context.Context, billingKey, customerKey, orderID, orderName string, amount int64) (*tossclient.Payment, error)
}

// Service provides the payment and billing orchestration logic.
type Service struct {
	repo     Repository
	provider PaymentProvider
	now      func() time.Time
}

// NewService creates a new service instance.
func NewService(repo Repository, provider PaymentProvider) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		now:      time.Now,
	}
}

// CreatedOrder is returned by CreateOrder; the customer key is needed by the
// client before it opens the provider's payment UI.
type CreatedOrder struct {
	Payment     *domain.Payment
	CustomerKey string
}

// CreateOrder persists a PENDING order before the user is redirected to the
// provider's checkout. The stored amount is the one trusted at confirmation
// time.
func (s *Service) CreateOrder(ctx context.Context, userID, orderID, orderName string, amount int64, metadata map[string]string) (*CreatedOrder, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.CreatePayment(ctx, userID, orderID, orderName, amount, metadata)
	if err != nil {
		return nil, err
	}

	return &CreatedOrder{Payment: payment, CustomerKey: profile.CustomerKey}, nil
}

// ConfirmPayment validates a provider-issued payment key against the stored
// order and asks the provider to finalize the charge.
func (s *Service) ConfirmPayment(ctx context.Context, userID, paymentKey, orderID string, amount int64) (*tossclient.Payment, error) {
	payment, err := s.repo.GetPaymentByOrderID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	// Reject client-side amount tampering before contacting the provider.
	if payment.Amount != amount {
		return nil, ErrAmountMismatch
	}

	confirmed, err := s.provider.ConfirmPayment(ctx, paymentKey, orderID, amount)
	if err != nil {
		// Record the failure; the update is advisory and must not change
		// the error already being returned.
		var apiErr *tossclient.APIError
		if errors.As(err, &apiErr) {
			update := domain.PaymentUpdate{
				Status:         domain.PaymentStatusFailed,
				FailureCode:    &apiErr.Code,
				FailureMessage: &apiErr.Message,
			}
			if updateErr := s.repo.UpdatePaymentResult(ctx, payment.ID, update); updateErr != nil {
				log.Printf("level=warn component=payments op=confirm order_id=%s msg=\"failed to record payment failure\" err=%v", orderID, updateErr)
			}
		}
		return nil, err
	}

	update := domain.PaymentUpdate{
		Status:     domain.PaymentStatusDone,
		PaymentKey: &confirmed.PaymentKey,
		Method:     &confirmed.Method,
		ApprovedAt: tossclient.ParseProviderTime(confirmed.ApprovedAt),
	}
	if confirmed.Card != nil {
		update.CardCompany = &confirmed.Card.IssuerCode
		update.CardNumber = &confirmed.Card.Number
		update.CardType = &confirmed.Card.CardType
		update.InstallmentMonths = confirmed.Card.InstallmentPlanMonths
	}
	if confirmed.Receipt != nil {
		update.ReceiptURL = &confirmed.Receipt.URL
	}
	// The charge already succeeded; a persistence failure here is logged
	// and must not downgrade the response.
	if updateErr := s.repo.UpdatePaymentResult(ctx, payment.ID, update); updateErr != nil {
		log.Printf("level=error component=payments op=confirm order_id=%s msg=\"payment confirmed but record update failed\" err=%v", orderID, updateErr)
	}

	return confirmed, nil
}

// IssuedBillingKey is the result of a billing-key issuance. Stored is nil
// when the provider call succeeded but persistence failed afterwards.
type IssuedBillingKey struct {
	Stored  *domain.BillingKey
	Summary domain.BillingKeySummary
}

// IssueBillingKey exchanges a one-time auth key for a reusable billing key
// and stores it. The supplied customer key must match the one on the
// caller's profile; this binds the issuance to the authenticated owner.
func (s *Service) IssueBillingKey(ctx context.Context, userID, authKey, customerKey string) (*IssuedBillingKey, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.CustomerKey != customerKey {
		return nil, ErrCustomerKeyMismatch
	}

	issued, err := s.provider.IssueBillingKey(ctx, authKey, customerKey)
	if err != nil {
		return nil, err
	}

	result := &IssuedBillingKey{}
	bk := &domain.BillingKey{
		UserID:          userID,
		BillingKey:      issued.BillingKey,
		CustomerKey:     issued.CustomerKey,
		AuthenticatedAt: tossclient.ParseProviderTime(issued.AuthenticatedAt),
	}
	if issued.Card != nil {
		bk.CardCompany = &issued.Card.IssuerCode
		bk.CardNumber = &issued.Card.Number
		bk.CardType = &issued.Card.CardType
		bk.OwnerType = &issued.Card.OwnerType
	}
	result.Summary = domain.BillingKeySummary{
		CardCompany:     bk.CardCompany,
		CardNumber:      bk.CardNumber,
		CardType:        bk.CardType,
		AuthenticatedAt: bk.AuthenticatedAt,
	}

	// Supersede any previous key, then store the new one. The issuance has
	// already succeeded at the provider, so both writes are advisory.
	if err := s.repo.DeactivateBillingKeys(ctx, userID); err != nil {
		log.Printf("level=warn component=billing op=issue user_id=%s msg=\"failed to deactivate previous billing keys\" err=%v", userID, err)
	}
	stored, err := s.repo.CreateBillingKey(ctx, bk)
	if err != nil {
		log.Printf("level=error component=billing op=issue user_id=%s msg=\"billing key issued but could not be stored\" err=%v", userID, err)
		return result, nil
	}
	result.Stored = stored

	return result, nil
}

// ChargeRequest carries the inputs of a billing-key charge.
type ChargeRequest struct {
	BillingKeyID   string
	OrderID        string
	OrderName      string
	Amount         int64
	SubscriptionID string // optional; when set, the attempt is logged and the cycle advanced
}

// ChargeBillingKey executes a charge against a stored billing key. When the
// charge belongs to a subscription, exactly one payment attempt row is
// appended regardless of the provider outcome, and on success the
// subscription's billing cycle is advanced.
func (s *Service) ChargeBillingKey(ctx context.Context, userID string, req ChargeRequest) (*tossclient.Payment, error) {
	bk, err := s.repo.GetActiveBillingKey(ctx, userID, req.BillingKeyID)
	if err != nil {
		return nil, err
	}

	charged, err := s.provider.ChargeBillingKey(ctx, bk.BillingKey, bk.CustomerKey, req.OrderID, req.OrderName, req.Amount)
	if err != nil {
		if req.SubscriptionID != "" {
			s.recordChargeAttempt(ctx, userID, req, nil, err)
		}
		return nil, err
	}

	if req.SubscriptionID != "" {
		s.recordChargeAttempt(ctx, userID, req, charged, nil)
		s.advanceSubscription(ctx, req.SubscriptionID)
	}

	return charged, nil
}

// recordChargeAttempt appends one row to the subscription payment log. The
// charge outcome is already decided; failures here are logged only.
func (s *Service) recordChargeAttempt(ctx context.Context, userID string, req ChargeRequest, charged *tossclient.Payment, chargeErr error) {
	retryCount, err := s.repo.CountSubscriptionPayments(ctx, req.SubscriptionID)
	if err != nil {
		log.Printf("level=warn component=billing op=charge subscription_id=%s msg=\"failed to count prior attempts\" err=%v", req.SubscriptionID, err)
		retryCount = 0
	}

	attempt := &domain.SubscriptionPayment{
		SubscriptionID: req.SubscriptionID,
		UserID:         userID,
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		RetryCount:     retryCount,
	}
	if chargeErr != nil {
		attempt.Status = domain.PaymentStatusFailed
		var apiErr *tossclient.APIError
		if errors.As(chargeErr, &apiErr) {
			attempt.FailureCode = &apiErr.Code
			attempt.FailureMessage = &apiErr.Message
		} else {
			msg := chargeErr.Error()
			attempt.FailureMessage = &msg
		}
	} else {
		attempt.Status = domain.PaymentStatusDone
		attempt.PaymentKey = &charged.PaymentKey
		attempt.ApprovedAt = tossclient.ParseProviderTime(charged.ApprovedAt)
	}

	if err := s.repo.CreateSubscriptionPayment(ctx, attempt); err != nil {
		log.Printf("level=error component=billing op=charge subscription_id=%s msg=\"failed to append payment attempt\" err=%v", req.SubscriptionID, err)
	}
}

// advanceSubscription moves the subscription's billing window forward by one
// cycle unit from now. The charge already succeeded, so bookkeeping failures
// are logged, not surfaced as charge failures.
func (s *Service) advanceSubscription(ctx context.Context, subscriptionID string) {
	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		log.Printf("level=warn component=billing op=charge subscription_id=%s msg=\"failed to load subscription for cycle advancement\" err=%v", subscriptionID, err)
		return
	}

	now := s.now()
	next := NextBillingDate(now, sub.BillingCycle)
	if err := s.repo.AdvanceSubscriptionPeriod(ctx, subscriptionID, now, next); err != nil {
		log.Printf("level=error component=billing op=charge subscription_id=%s msg=\"failed to advance billing period\" err=%v", subscriptionID, err)
	}
}

// StartSubscription runs the full subscription bootstrap: issue a billing
// key from the callback parameters, create a PENDING subscription for the
// selected plan and execute the first charge. If the first charge fails the
// subscription is marked FAILED (compensating action) and the charge error
// is propagated.
func (s *Service) StartSubscription(ctx context.Context, userID, authKey, customerKey, planID string) (*domain.Subscription, *tossclient.Payment, error) {
	plan, ok := domain.Plans[planID]
	if !ok {
		return nil, nil, ErrUnknownPlan
	}

	issued, err := s.IssueBillingKey(ctx, userID, authKey, customerKey)
	if err != nil {
		return nil, nil, err
	}

	// Prefer the id of the key just stored; re-querying newest-first is
	// only a fallback and is racy under concurrent issuance flows.
	bk := issued.Stored
	if bk == nil {
		bk, err = s.repo.LatestActiveBillingKey(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
	}

	sub, err := s.repo.CreateSubscription(ctx, userID, bk.ID, plan)
	if err != nil {
		return nil, nil, err
	}

	payment, err := s.ChargeBillingKey(ctx, userID, ChargeRequest{
		BillingKeyID:   bk.ID,
		OrderID:        NewSubscriptionOrderID(),
		OrderName:      plan.Name,
		Amount:         plan.Amount,
		SubscriptionID: sub.ID,
	})
	if err != nil {
		if statusErr := s.repo.UpdateSubscriptionStatus(ctx, sub.ID, domain.SubscriptionStatusFailed); statusErr != nil {
			log.Printf("level=warn component=billing op=subscribe subscription_id=%s msg=\"failed to mark subscription failed\" err=%v", sub.ID, statusErr)
		}
		return nil, nil, err
	}

	// The charge handler advanced the period; reload for the fresh state.
	updated, err := s.repo.GetSubscription(ctx, sub.ID)
	if err != nil {
		log.Printf("level=warn component=billing op=subscribe subscription_id=%s msg=\"failed to reload subscription\" err=%v", sub.ID, err)
		updated = sub
	}

	return updated, payment, nil
}

// GetSubscriptionStatus returns the caller's most recent subscription.
func (s *Service) GetSubscriptionStatus(ctx context.Context, userID string) (*domain.Subscription, error) {
	return s.repo.GetSubscriptionByUserID(ctx, userID)
}

// NewSubscriptionOrderID generates a unique order id for a subscription
// charge.
func NewSubscriptionOrderID() string {
	return fmt.Sprintf("sub_%d_%s", time.Now().UnixMilli(), strings.Split(uuid.NewString(), "-")[0])
}
