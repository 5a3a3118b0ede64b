/**
 * @description
 * Scheduled job implementations. The recurring billing job charges active
 * subscriptions whose next billing date has passed; each charge records its
 * attempt and advances the cycle through the same orchestrator the API uses.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
	"github.com/chiwonkim111/vibecoding-backend/pkg/tossclient"
)

// BillingRepository defines the database operations the jobs need.
type BillingRepository interface {
	GetSubscriptionsDueForBilling(ctx context.Context, now time.Time) ([]domain.Subscription, error)
}

// Charger executes a billing-key charge on behalf of a subscription.
type Charger interface {
	ChargeBillingKey(ctx context.Context, userID string, req ChargeRequest) (*tossclient.Payment, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo    BillingRepository
	charger Charger
	logger  *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo BillingRepository, charger Charger, logger *slog.Logger) *Jobs {
	return &Jobs{
		repo:    repo,
		charger: charger,
		logger:  logger,
	}
}

// ProcessRecurringBilling charges every subscription that is due. A failed
// charge records a FAILED attempt and is retried on the next run; the
// subscription itself is left ACTIVE.
func (j *Jobs) ProcessRecurringBilling() {
	j.logger.Info("starting recurring billing job")
	ctx := context.Background()

	subs, err := j.repo.GetSubscriptionsDueForBilling(ctx, time.Now())
	if err != nil {
		j.logger.Error("failed to get due subscriptions", "error", err)
		return
	}

	if len(subs) == 0 {
		j.logger.Info("no subscriptions due for billing")
		return
	}

	j.logger.Info("found subscriptions due for billing", "count", len(subs))

	for _, sub := range subs {
		j.logger.Info("charging subscription", "subscription_id", sub.ID, "user_id", sub.UserID, "amount", sub.Amount)

		_, err := j.charger.ChargeBillingKey(ctx, sub.UserID, ChargeRequest{
			BillingKeyID:   sub.BillingKeyID,
			OrderID:        NewSubscriptionOrderID(),
			OrderName:      sub.PlanName,
			Amount:         sub.Amount,
			SubscriptionID: sub.ID,
		})
		if err != nil {
			j.logger.Error("recurring charge failed", "subscription_id", sub.ID, "error", err)
			continue
		}
		j.logger.Info("recurring charge succeeded", "subscription_id", sub.ID)
	}

	j.logger.Info("recurring billing job finished")
}
