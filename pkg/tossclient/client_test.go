package tossclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, wantPath string, status int, body string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("unexpected path: got %s, want %s", r.URL.Path, wantPath)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("test_sk_secret:"))
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("unexpected Authorization header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test_sk_secret")
}

func TestConfirmPayment_Success(t *testing.T) {
	client := newTestServer(t, "/v1/payments/confirm", http.StatusOK, `{
		"paymentKey": "pk-1",
		"orderId": "order-1",
		"orderName": "테스트 상품",
		"totalAmount": 49000,
		"method": "카드",
		"status": "DONE",
		"approvedAt": "2024-03-15T09:00:00+09:00",
		"card": {"issuerCode": "신한", "number": "1234-****", "cardType": "신용"},
		"receipt": {"url": "https://receipt.example/1"}
	}`)

	payment, err := client.ConfirmPayment(context.Background(), "pk-1", "order-1", 49000)
	if err != nil {
		t.Fatalf("ConfirmPayment returned error: %v", err)
	}
	if payment.PaymentKey != "pk-1" || payment.TotalAmount != 49000 {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if payment.Card == nil || payment.Card.IssuerCode != "신한" {
		t.Fatalf("expected card metadata, got %+v", payment.Card)
	}
	if payment.Receipt == nil || payment.Receipt.URL != "https://receipt.example/1" {
		t.Fatalf("expected receipt, got %+v", payment.Receipt)
	}
}

func TestConfirmPayment_APIError(t *testing.T) {
	client := newTestServer(t, "/v1/payments/confirm", http.StatusBadRequest,
		`{"code": "ALREADY_PROCESSED_PAYMENT", "message": "이미 처리된 결제 입니다."}`)

	_, err := client.ConfirmPayment(context.Background(), "pk-1", "order-1", 49000)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected provider status carried, got %d", apiErr.HTTPStatus)
	}
	if apiErr.Code != "ALREADY_PROCESSED_PAYMENT" {
		t.Fatalf("expected provider code carried, got %q", apiErr.Code)
	}
	if apiErr.Message != "이미 처리된 결제 입니다." {
		t.Fatalf("expected provider message carried, got %q", apiErr.Message)
	}
}

func TestIssueBillingKey_SendsAuthAndCustomerKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if payload["authKey"] != "auth-1" || payload["customerKey"] != "cust-1" {
			t.Errorf("unexpected payload: %v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"billingKey": "bk-raw", "customerKey": "cust-1", "authenticatedAt": "2024-03-15T09:00:00+09:00"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "test_sk_secret")
	bk, err := client.IssueBillingKey(context.Background(), "auth-1", "cust-1")
	if err != nil {
		t.Fatalf("IssueBillingKey returned error: %v", err)
	}
	if bk.BillingKey != "bk-raw" || bk.CustomerKey != "cust-1" {
		t.Fatalf("unexpected billing key: %+v", bk)
	}
}

func TestChargeBillingKey_UsesKeyInPath(t *testing.T) {
	client := newTestServer(t, "/v1/billing/bk-raw", http.StatusOK,
		`{"paymentKey": "pk-2", "orderId": "sub-order-1", "totalAmount": 49000, "status": "DONE"}`)

	payment, err := client.ChargeBillingKey(context.Background(), "bk-raw", "cust-1", "sub-order-1", "월간 구독", 49000)
	if err != nil {
		t.Fatalf("ChargeBillingKey returned error: %v", err)
	}
	if payment.PaymentKey != "pk-2" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := NewClient("", "test_sk_secret")
	if client.BaseURL != DefaultBaseURL {
		t.Fatalf("expected default base URL, got %q", client.BaseURL)
	}
}

func TestParseProviderTime(t *testing.T) {
	parsed := ParseProviderTime("2024-03-15T09:00:00+09:00")
	if parsed == nil {
		t.Fatal("expected a parsed time")
	}
	want := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.FixedZone("KST", 9*60*60))
	if !parsed.Equal(want) {
		t.Fatalf("expected %v, got %v", want, parsed)
	}

	if ParseProviderTime("") != nil {
		t.Fatal("expected nil for an empty value")
	}
	if ParseProviderTime("not-a-time") != nil {
		t.Fatal("expected nil for an unparsable value")
	}
}
