/**
 * @description
 * Billing-cycle date arithmetic. The next billing date is derived
 * deterministically from a period start plus one cycle unit, using Go's
 * calendar normalization: a date that does not exist in the target month
 * rolls forward (2024-01-31 + 1 month = 2024-03-02, 2024-02-29 + 1 year =
 * 2025-03-01).
 */
package app

import (
	"time"

	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
)

// NextBillingDate returns the end of the billing period that starts at
// periodStart for the given cycle.
func NextBillingDate(periodStart time.Time, cycle string) time.Time {
	if cycle == domain.BillingCycleYearly {
		return periodStart.AddDate(1, 0, 0)
	}
	return periodStart.AddDate(0, 1, 0)
}
