/**
 * @description
 * Rate limiting middleware for the payment endpoints. Limiting is backed by
 * Redis and keyed by the authenticated user (falling back to the remote
 * address); when no Redis is configured the limiter is a no-op.
 */
package api

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"
)

// RateLimiter counts one request for (scope, subject) and reports the
// running count within the window plus a retry-after hint in seconds.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error)
}

// PaymentRateLimitMiddleware limits requests per subject per minute on the
// routes it wraps. A limiter failure fails open: payments must not be
// blocked by a Redis outage.
func PaymentRateLimitMiddleware(limiter RateLimiter, limitPerMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := UserFromContext(r.Context())
			if !ok {
				if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
					subject = host
				} else {
					subject = r.RemoteAddr
				}
			}

			count, retryAfter, err := limiter.ConsumeRateLimit(r.Context(), "payments", subject, limitPerMinute, time.Minute)
			if err != nil {
				log.Printf("level=warn component=api msg=\"rate limiter unavailable; failing open\" err=%v", err)
				next.ServeHTTP(w, r)
				return
			}
			if limitPerMinute > 0 && count > limitPerMinute {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respondWithError(w, http.StatusTooManyRequests, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
