/**
 * @description
 * This file contains the HTTP handlers for the payment and billing API
 * endpoints. Handlers parse incoming requests, call the orchestrators in the
 * service layer and map the outcome onto HTTP: validation failures to 400,
 * missing sessions to 401, absent records to 404, duplicate orders to 409
 * and provider rejections to a passthrough of the provider's own status,
 * code and message.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - internal/app, internal/store, pkg/tossclient: For orchestration logic,
 *   sentinel errors and the provider error type.
 */
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/chiwonkim111/vibecoding-backend/internal/app"
	"github.com/chiwonkim111/vibecoding-backend/internal/store"
	"github.com/chiwonkim111/vibecoding-backend/pkg/tossclient"
)

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service *app.Service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// errorResponse is the JSON error body. Code is only set for provider
// rejections, where it carries the provider's error code verbatim.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

// respondWithProviderError passes a provider rejection through: the
// provider's HTTP status, message and code reach the caller unchanged.
func respondWithProviderError(w http.ResponseWriter, apiErr *tossclient.APIError) {
	respondWithJSON(w, apiErr.HTTPStatus, errorResponse{Error: apiErr.Message, Code: apiErr.Code})
}

// paymentResponse is the provider-summarized payment view returned by the
// confirmation and billing charge endpoints.
type paymentResponse struct {
	PaymentKey string              `json:"paymentKey"`
	OrderID    string              `json:"orderId"`
	OrderName  string              `json:"orderName"`
	Amount     int64               `json:"amount"`
	Method     string              `json:"method"`
	ApprovedAt string              `json:"approvedAt"`
	Receipt    *tossclient.Receipt `json:"receipt,omitempty"`
}

func buildPaymentResponse(p *tossclient.Payment) paymentResponse {
	return paymentResponse{
		PaymentKey: p.PaymentKey,
		OrderID:    p.OrderID,
		OrderName:  p.OrderName,
		Amount:     p.TotalAmount,
		Method:     p.Method,
		ApprovedAt: p.ApprovedAt,
		Receipt:    p.Receipt,
	}
}

// CreatePaymentHandler handles POST /api/payments/create. It stores the
// order's intended amount before the user opens the provider's checkout UI.
func (h *Handler) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "로그인이 필요합니다.")
		return
	}

	var req struct {
		OrderID   string            `json:"orderId"`
		OrderName string            `json:"orderName"`
		Amount    int64             `json:"amount"`
		Metadata  map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}
	if req.OrderID == "" || req.OrderName == "" || req.Amount == 0 {
		respondWithError(w, http.StatusBadRequest, "필수 파라미터가 누락되었습니다.")
		return
	}
	if req.Amount <= 0 {
		respondWithError(w, http.StatusBadRequest, "결제 금액은 0보다 커야 합니다.")
		return
	}

	created, err := h.service.CreateOrder(r.Context(), userID, req.OrderID, req.OrderName, req.Amount, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrProfileNotFound):
			respondWithError(w, http.StatusNotFound, "사용자 정보를 찾을 수 없습니다.")
		case errors.Is(err, store.ErrDuplicateOrder):
			respondWithError(w, http.StatusConflict, "이미 존재하는 주문번호입니다.")
		default:
			log.Printf("level=error component=api op=create_payment order_id=%s err=%v", req.OrderID, err)
			respondWithError(w, http.StatusInternalServerError, "결제 생성 중 오류가 발생했습니다.")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"payment": map[string]interface{}{
			"id":          created.Payment.ID,
			"orderId":     created.Payment.OrderID,
			"orderName":   created.Payment.OrderName,
			"amount":      created.Payment.Amount,
			"customerKey": created.CustomerKey,
		},
	})
}

// ConfirmPaymentHandler handles POST /api/payments/confirm. The stored order
// amount is compared against the client-supplied amount before the provider
// is asked to finalize the charge.
func (h *Handler) ConfirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "로그인이 필요합니다.")
		return
	}

	var req struct {
		PaymentKey string `json:"paymentKey"`
		OrderID    string `json:"orderId"`
		Amount     int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}
	if req.PaymentKey == "" || req.OrderID == "" || req.Amount == 0 {
		respondWithError(w, http.StatusBadRequest, "필수 파라미터가 누락되었습니다.")
		return
	}

	confirmed, err := h.service.ConfirmPayment(r.Context(), userID, req.PaymentKey, req.OrderID, req.Amount)
	if err != nil {
		var apiErr *tossclient.APIError
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "주문 정보를 찾을 수 없습니다.")
		case errors.Is(err, app.ErrAmountMismatch):
			respondWithError(w, http.StatusBadRequest, "결제 금액이 일치하지 않습니다.")
		case errors.As(err, &apiErr):
			respondWithProviderError(w, apiErr)
		default:
			log.Printf("level=error component=api op=confirm_payment order_id=%s err=%v", req.OrderID, err)
			respondWithError(w, http.StatusInternalServerError, "결제 처리 중 오류가 발생했습니다.")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"payment": buildPaymentResponse(confirmed),
	})
}

// IssueBillingKeyHandler handles POST /api/billing/issue. Only card metadata
// is returned; the raw billing key never leaves the server.
func (h *Handler) IssueBillingKeyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "로그인이 필요합니다.")
		return
	}

	var req struct {
		AuthKey     string `json:"authKey"`
		CustomerKey string `json:"customerKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}
	if req.AuthKey == "" || req.CustomerKey == "" {
		respondWithError(w, http.StatusBadRequest, "필수 파라미터가 누락되었습니다.")
		return
	}

	issued, err := h.service.IssueBillingKey(r.Context(), userID, req.AuthKey, req.CustomerKey)
	if err != nil {
		var apiErr *tossclient.APIError
		switch {
		case errors.Is(err, store.ErrProfileNotFound):
			respondWithError(w, http.StatusNotFound, "사용자 정보를 찾을 수 없습니다.")
		case errors.Is(err, app.ErrCustomerKeyMismatch):
			respondWithError(w, http.StatusBadRequest, "customerKey가 일치하지 않습니다.")
		case errors.As(err, &apiErr):
			respondWithProviderError(w, apiErr)
		default:
			log.Printf("level=error component=api op=issue_billing_key user_id=%s err=%v", userID, err)
			respondWithError(w, http.StatusInternalServerError, "빌링키 발급 중 오류가 발생했습니다.")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"billing": issued.Summary,
	})
}

// PayBillingHandler handles POST /api/billing/pay: a charge against a
// stored billing key, optionally on behalf of a subscription.
func (h *Handler) PayBillingHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "로그인이 필요합니다.")
		return
	}

	var req struct {
		BillingKeyID   string `json:"billingKeyId"`
		OrderID        string `json:"orderId"`
		OrderName      string `json:"orderName"`
		Amount         int64  `json:"amount"`
		SubscriptionID string `json:"subscriptionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}
	if req.BillingKeyID == "" || req.OrderID == "" || req.OrderName == "" || req.Amount == 0 {
		respondWithError(w, http.StatusBadRequest, "필수 파라미터가 누락되었습니다.")
		return
	}

	charged, err := h.service.ChargeBillingKey(r.Context(), userID, app.ChargeRequest{
		BillingKeyID:   req.BillingKeyID,
		OrderID:        req.OrderID,
		OrderName:      req.OrderName,
		Amount:         req.Amount,
		SubscriptionID: req.SubscriptionID,
	})
	if err != nil {
		var apiErr *tossclient.APIError
		switch {
		case errors.Is(err, store.ErrBillingKeyNotFound):
			respondWithError(w, http.StatusNotFound, "유효한 빌링키를 찾을 수 없습니다.")
		case errors.As(err, &apiErr):
			respondWithProviderError(w, apiErr)
		default:
			log.Printf("level=error component=api op=pay_billing order_id=%s err=%v", req.OrderID, err)
			respondWithError(w, http.StatusInternalServerError, "자동결제 처리 중 오류가 발생했습니다.")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"payment": buildPaymentResponse(charged),
	})
}

// SubscribeHandler handles POST /api/billing/subscribe: the full bootstrap
// saga (issue key, create subscription, first charge) in one request.
func (h *Handler) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "로그인이 필요합니다.")
		return
	}

	var req struct {
		AuthKey     string `json:"authKey"`
		CustomerKey string `json:"customerKey"`
		PlanID      string `json:"planId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}
	if req.AuthKey == "" || req.CustomerKey == "" || req.PlanID == "" {
		respondWithError(w, http.StatusBadRequest, "필수 파라미터가 누락되었습니다.")
		return
	}

	sub, payment, err := h.service.StartSubscription(r.Context(), userID, req.AuthKey, req.CustomerKey, req.PlanID)
	if err != nil {
		var apiErr *tossclient.APIError
		switch {
		case errors.Is(err, app.ErrUnknownPlan):
			respondWithError(w, http.StatusBadRequest, "올바르지 않은 플랜입니다.")
		case errors.Is(err, store.ErrProfileNotFound):
			respondWithError(w, http.StatusNotFound, "사용자 정보를 찾을 수 없습니다.")
		case errors.Is(err, app.ErrCustomerKeyMismatch):
			respondWithError(w, http.StatusBadRequest, "customerKey가 일치하지 않습니다.")
		case errors.Is(err, store.ErrBillingKeyNotFound):
			respondWithError(w, http.StatusNotFound, "빌링키를 찾을 수 없습니다.")
		case errors.As(err, &apiErr):
			respondWithProviderError(w, apiErr)
		default:
			log.Printf("level=error component=api op=subscribe user_id=%s err=%v", userID, err)
			respondWithError(w, http.StatusInternalServerError, "구독 처리에 실패했습니다.")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"subscription": sub,
		"payment":      buildPaymentResponse(payment),
	})
}

// SubscriptionStatusHandler handles GET /api/subscriptions/me.
func (h *Handler) SubscriptionStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "로그인이 필요합니다.")
		return
	}

	sub, err := h.service.GetSubscriptionStatus(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			respondWithError(w, http.StatusNotFound, "구독 정보가 없습니다.")
			return
		}
		log.Printf("level=error component=api op=subscription_status user_id=%s err=%v", userID, err)
		respondWithError(w, http.StatusInternalServerError, "구독 조회 중 오류가 발생했습니다.")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"subscription": sub,
	})
}
