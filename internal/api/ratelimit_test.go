package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type limiterStub struct {
	count      int
	retryAfter int
	err        error
	subjects   []string
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	l.subjects = append(l.subjects, subject)
	return l.count, l.retryAfter, l.err
}

func rateLimitProbe(limiter *limiterStub, decorate func(*http.Request)) *httptest.ResponseRecorder {
	handler := PaymentRateLimitMiddleware(limiter, 10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/payments/create", nil)
	if decorate != nil {
		decorate(req)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestPaymentRateLimit_UnderLimitPasses(t *testing.T) {
	rr := rateLimitProbe(&limiterStub{count: 3, retryAfter: 30}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 under the limit, got %d", rr.Code)
	}
}

func TestPaymentRateLimit_OverLimitRejects(t *testing.T) {
	rr := rateLimitProbe(&limiterStub{count: 11, retryAfter: 42}, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After header, got %q", got)
	}
}

func TestPaymentRateLimit_FailsOpenOnLimiterError(t *testing.T) {
	rr := rateLimitProbe(&limiterStub{err: errors.New("redis unavailable")}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open on limiter error, got %d", rr.Code)
	}
}

func TestPaymentRateLimit_KeysByUserWhenAuthenticated(t *testing.T) {
	limiter := &limiterStub{count: 1}
	rateLimitProbe(limiter, func(r *http.Request) {
		*r = *r.WithContext(context.WithValue(r.Context(), userIDKey, "user-1"))
	})
	if len(limiter.subjects) != 1 || limiter.subjects[0] != "user-1" {
		t.Fatalf("expected the user id as subject, got %v", limiter.subjects)
	}
}

func TestPaymentRateLimit_KeysByRemoteHostWhenAnonymous(t *testing.T) {
	limiter := &limiterStub{count: 1}
	rateLimitProbe(limiter, func(r *http.Request) {
		r.RemoteAddr = "203.0.113.9:51422"
	})
	if len(limiter.subjects) != 1 || limiter.subjects[0] != "203.0.113.9" {
		t.Fatalf("expected the remote host as subject, got %v", limiter.subjects)
	}
}
