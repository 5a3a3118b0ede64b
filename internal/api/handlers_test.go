package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chiwonkim111/vibecoding-backend/internal/app"
	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
	"github.com/chiwonkim111/vibecoding-backend/internal/store"
	"github.com/chiwonkim111/vibecoding-backend/pkg/tossclient"
)

type handlerRepoStub struct {
	profile          *domain.Profile
	profileErr       error
	createPaymentErr error
	paymentByOrder   *domain.Payment
	paymentErr       error
	subByUser        *domain.Subscription
	subByUserErr     error
}

func (r *handlerRepoStub) CreatePayment(ctx context.Context, userID, orderID, orderName string, amount int64, metadata map[string]string) (*domain.Payment, error) {
	if r.createPaymentErr != nil {
		return nil, r.createPaymentErr
	}
	return &domain.Payment{ID: "pay-1", UserID: userID, OrderID: orderID, OrderName: orderName, Amount: amount, Status: domain.PaymentStatusPending}, nil
}

func (r *handlerRepoStub) GetPaymentByOrderID(ctx context.Context, userID, orderID string) (*domain.Payment, error) {
	if r.paymentErr != nil {
		return nil, r.paymentErr
	}
	return r.paymentByOrder, nil
}

func (r *handlerRepoStub) UpdatePaymentResult(ctx context.Context, paymentID string, update domain.PaymentUpdate) error {
	return nil
}

func (r *handlerRepoStub) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if r.profileErr != nil {
		return nil, r.profileErr
	}
	return r.profile, nil
}

func (r *handlerRepoStub) CreateBillingKey(ctx context.Context, bk *domain.BillingKey) (*domain.BillingKey, error) {
	stored := *bk
	stored.ID = "bk-1"
	stored.IsActive = true
	return &stored, nil
}

func (r *handlerRepoStub) GetActiveBillingKey(ctx context.Context, userID, billingKeyID string) (*domain.BillingKey, error) {
	return &domain.BillingKey{ID: billingKeyID, UserID: userID, BillingKey: "raw", CustomerKey: "cust-1", IsActive: true}, nil
}

func (r *handlerRepoStub) LatestActiveBillingKey(ctx context.Context, userID string) (*domain.BillingKey, error) {
	return nil, store.ErrBillingKeyNotFound
}

func (r *handlerRepoStub) DeactivateBillingKeys(ctx context.Context, userID string) error { return nil }

func (r *handlerRepoStub) CreateSubscription(ctx context.Context, userID, billingKeyID string, plan domain.Plan) (*domain.Subscription, error) {
	return &domain.Subscription{ID: "sub-1", UserID: userID, BillingKeyID: billingKeyID, PlanID: plan.ID, PlanName: plan.Name, Amount: plan.Amount, BillingCycle: plan.BillingCycle, Status: domain.SubscriptionStatusPending}, nil
}

func (r *handlerRepoStub) GetSubscription(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	return &domain.Subscription{ID: subscriptionID, Status: domain.SubscriptionStatusActive}, nil
}

func (r *handlerRepoStub) GetSubscriptionByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	if r.subByUserErr != nil {
		return nil, r.subByUserErr
	}
	return r.subByUser, nil
}

func (r *handlerRepoStub) AdvanceSubscriptionPeriod(ctx context.Context, subscriptionID string, periodStart, nextBillingDate time.Time) error {
	return nil
}

func (r *handlerRepoStub) UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string) error {
	return nil
}

func (r *handlerRepoStub) CreateSubscriptionPayment(ctx context.Context, attempt *domain.SubscriptionPayment) error {
	return nil
}

func (r *handlerRepoStub) CountSubscriptionPayments(ctx context.Context, subscriptionID string) (int, error) {
	return 0, nil
}

type handlerProviderStub struct {
	confirmResult *tossclient.Payment
	confirmErr    error
}

func (p *handlerProviderStub) ConfirmPayment(ctx context.Context, paymentKey, orderID string, amount int64) (*tossclient.Payment, error) {
	if p.confirmErr != nil {
		return nil, p.confirmErr
	}
	return p.confirmResult, nil
}

func (p *handlerProviderStub) IssueBillingKey(ctx context.Context, authKey, customerKey string) (*tossclient.BillingKey, error) {
	return &tossclient.BillingKey{BillingKey: "raw", CustomerKey: customerKey}, nil
}

func (p *handlerProviderStub) ChargeBillingKey(ctx context.Context, billingKey, customerKey, orderID, orderName string, amount int64) (*tossclient.Payment, error) {
	return &tossclient.Payment{PaymentKey: "pk-1", OrderID: orderID, OrderName: orderName, TotalAmount: amount, Status: "DONE"}, nil
}

func newTestHandler(repo *handlerRepoStub, provider *handlerProviderStub) *Handler {
	return NewHandler(app.NewService(repo, provider))
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	ctx := context.WithValue(req.Context(), userIDKey, "user-1")
	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return body
}

func TestCreatePaymentHandler_RequiresSession(t *testing.T) {
	h := newTestHandler(&handlerRepoStub{}, &handlerProviderStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/payments/create", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.CreatePaymentHandler(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "로그인이 필요합니다." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestCreatePaymentHandler_Success(t *testing.T) {
	repo := &handlerRepoStub{profile: &domain.Profile{ID: "user-1", CustomerKey: "cust-1"}}
	h := newTestHandler(repo, &handlerProviderStub{})

	req := authedRequest(http.MethodPost, "/api/payments/create", `{"orderId":"order-1","orderName":"테스트 상품","amount":49000}`)
	rr := httptest.NewRecorder()
	h.CreatePaymentHandler(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	payment, ok := body["payment"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected payment object, got %v", body)
	}
	if payment["customerKey"] != "cust-1" {
		t.Fatalf("expected customer key in response, got %v", payment)
	}
	if payment["amount"].(float64) != 49000 {
		t.Fatalf("expected stored amount, got %v", payment["amount"])
	}
}

func TestCreatePaymentHandler_MissingFields(t *testing.T) {
	h := newTestHandler(&handlerRepoStub{profile: &domain.Profile{ID: "user-1"}}, &handlerProviderStub{})

	req := authedRequest(http.MethodPost, "/api/payments/create", `{"orderName":"테스트 상품","amount":49000}`)
	rr := httptest.NewRecorder()
	h.CreatePaymentHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreatePaymentHandler_NegativeAmount(t *testing.T) {
	h := newTestHandler(&handlerRepoStub{profile: &domain.Profile{ID: "user-1"}}, &handlerProviderStub{})

	req := authedRequest(http.MethodPost, "/api/payments/create", `{"orderId":"order-1","orderName":"테스트 상품","amount":-100}`)
	rr := httptest.NewRecorder()
	h.CreatePaymentHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreatePaymentHandler_DuplicateOrder(t *testing.T) {
	repo := &handlerRepoStub{
		profile:          &domain.Profile{ID: "user-1", CustomerKey: "cust-1"},
		createPaymentErr: store.ErrDuplicateOrder,
	}
	h := newTestHandler(repo, &handlerProviderStub{})

	req := authedRequest(http.MethodPost, "/api/payments/create", `{"orderId":"order-1","orderName":"테스트 상품","amount":49000}`)
	rr := httptest.NewRecorder()
	h.CreatePaymentHandler(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "이미 존재하는 주문번호입니다." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestCreatePaymentHandler_ProfileNotFound(t *testing.T) {
	repo := &handlerRepoStub{profileErr: store.ErrProfileNotFound}
	h := newTestHandler(repo, &handlerProviderStub{})

	req := authedRequest(http.MethodPost, "/api/payments/create", `{"orderId":"order-1","orderName":"테스트 상품","amount":49000}`)
	rr := httptest.NewRecorder()
	h.CreatePaymentHandler(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestConfirmPaymentHandler_OrderNotFound(t *testing.T) {
	repo := &handlerRepoStub{paymentErr: store.ErrOrderNotFound}
	h := newTestHandler(repo, &handlerProviderStub{})

	req := authedRequest(http.MethodPost, "/api/payments/confirm", `{"paymentKey":"pk-1","orderId":"order-x","amount":49000}`)
	rr := httptest.NewRecorder()
	h.ConfirmPaymentHandler(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestConfirmPaymentHandler_AmountMismatch(t *testing.T) {
	repo := &handlerRepoStub{paymentByOrder: &domain.Payment{ID: "pay-1", OrderID: "order-1", Amount: 49000}}
	h := newTestHandler(repo, &handlerProviderStub{})

	req := authedRequest(http.MethodPost, "/api/payments/confirm", `{"paymentKey":"pk-1","orderId":"order-1","amount":1000}`)
	rr := httptest.NewRecorder()
	h.ConfirmPaymentHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "결제 금액이 일치하지 않습니다." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestConfirmPaymentHandler_ProviderErrorPassthrough(t *testing.T) {
	repo := &handlerRepoStub{paymentByOrder: &domain.Payment{ID: "pay-1", OrderID: "order-1", Amount: 49000}}
	provider := &handlerProviderStub{confirmErr: &tossclient.APIError{
		HTTPStatus: http.StatusForbidden,
		Code:       "REJECT_CARD_PAYMENT",
		Message:    "한도초과 혹은 잔액부족으로 결제에 실패했습니다.",
	}}
	h := newTestHandler(repo, provider)

	req := authedRequest(http.MethodPost, "/api/payments/confirm", `{"paymentKey":"pk-1","orderId":"order-1","amount":49000}`)
	rr := httptest.NewRecorder()
	h.ConfirmPaymentHandler(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected provider status passthrough, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["code"] != "REJECT_CARD_PAYMENT" {
		t.Fatalf("expected provider code passthrough, got %v", body["code"])
	}
	if body["error"] != "한도초과 혹은 잔액부족으로 결제에 실패했습니다." {
		t.Fatalf("expected provider message passthrough, got %v", body["error"])
	}
}

func TestConfirmPaymentHandler_Success(t *testing.T) {
	repo := &handlerRepoStub{paymentByOrder: &domain.Payment{ID: "pay-1", OrderID: "order-1", Amount: 49000}}
	provider := &handlerProviderStub{confirmResult: &tossclient.Payment{
		PaymentKey:  "pk-1",
		OrderID:     "order-1",
		OrderName:   "테스트 상품",
		TotalAmount: 49000,
		Method:      "카드",
		Status:      "DONE",
		ApprovedAt:  "2024-03-15T09:00:00+09:00",
	}}
	h := newTestHandler(repo, provider)

	req := authedRequest(http.MethodPost, "/api/payments/confirm", `{"paymentKey":"pk-1","orderId":"order-1","amount":49000}`)
	rr := httptest.NewRecorder()
	h.ConfirmPaymentHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	payment := body["payment"].(map[string]interface{})
	if payment["paymentKey"] != "pk-1" || payment["method"] != "카드" {
		t.Fatalf("unexpected payment response: %v", payment)
	}
}

func TestSubscribeHandler_UnknownPlan(t *testing.T) {
	repo := &handlerRepoStub{profile: &domain.Profile{ID: "user-1", CustomerKey: "cust-1"}}
	h := newTestHandler(repo, &handlerProviderStub{})

	req := authedRequest(http.MethodPost, "/api/billing/subscribe", `{"authKey":"auth-1","customerKey":"cust-1","planId":"weekly"}`)
	rr := httptest.NewRecorder()
	h.SubscribeHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "올바르지 않은 플랜입니다." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestIssueBillingKeyHandler_CustomerKeyMismatch(t *testing.T) {
	repo := &handlerRepoStub{profile: &domain.Profile{ID: "user-1", CustomerKey: "cust-1"}}
	h := newTestHandler(repo, &handlerProviderStub{})

	req := authedRequest(http.MethodPost, "/api/billing/issue", `{"authKey":"auth-1","customerKey":"cust-2"}`)
	rr := httptest.NewRecorder()
	h.IssueBillingKeyHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSubscriptionStatusHandler_NotFound(t *testing.T) {
	repo := &handlerRepoStub{subByUserErr: store.ErrSubscriptionNotFound}
	h := newTestHandler(repo, &handlerProviderStub{})

	req := authedRequest(http.MethodGet, "/api/subscriptions/me", "")
	rr := httptest.NewRecorder()
	h.SubscriptionStatusHandler(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSubscriptionStatusHandler_Success(t *testing.T) {
	repo := &handlerRepoStub{subByUser: &domain.Subscription{ID: "sub-1", UserID: "user-1", Status: domain.SubscriptionStatusActive}}
	h := newTestHandler(repo, &handlerProviderStub{})

	req := authedRequest(http.MethodGet, "/api/subscriptions/me", "")
	rr := httptest.NewRecorder()
	h.SubscriptionStatusHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	sub := body["subscription"].(map[string]interface{})
	if sub["status"] != domain.SubscriptionStatusActive {
		t.Fatalf("unexpected subscription: %v", sub)
	}
}
