/**
 * @description
 * This package provides a client for the Toss Payments API. It encapsulates
 * the logic for making authenticated HTTP requests to the confirmation,
 * billing-key issuance and billing-key charge endpoints, handling request
 * body construction and response parsing.
 *
 * Authentication follows the provider's Basic-auth convention: the secret
 * key with a trailing colon, base64 encoded. No other credential handling
 * is performed.
 */
package tossclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Toss Payments API host.
const DefaultBaseURL = "https://api.tosspayments.com"

// Client is a client for the Toss Payments API.
type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// NewClient creates a new Toss Payments API client.
func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Card holds the card metadata the provider returns with an approved
// payment or an issued billing key.
type Card struct {
	IssuerCode            string `json:"issuerCode"`
	Number                string `json:"number"`
	CardType              string `json:"cardType"`
	OwnerType             string `json:"ownerType"`
	InstallmentPlanMonths int    `json:"installmentPlanMonths"`
}

// Receipt holds the receipt locator for an approved payment.
type Receipt struct {
	URL string `json:"url"`
}

// Payment is the provider's view of an approved payment. Returned by both
// the confirmation and billing-key charge endpoints.
type Payment struct {
	PaymentKey  string   `json:"paymentKey"`
	OrderID     string   `json:"orderId"`
	OrderName   string   `json:"orderName"`
	TotalAmount int64    `json:"totalAmount"`
	Method      string   `json:"method"`
	Status      string   `json:"status"`
	ApprovedAt  string   `json:"approvedAt"`
	Card        *Card    `json:"card"`
	Receipt     *Receipt `json:"receipt"`
}

// BillingKey is the provider's response to a billing-key issuance call.
type BillingKey struct {
	BillingKey      string `json:"billingKey"`
	CustomerKey     string `json:"customerKey"`
	AuthenticatedAt string `json:"authenticatedAt"`
	Card            *Card  `json:"card"`
}

// APIError represents an error response from the Toss Payments API. The
// provider's HTTP status, error code and message are carried verbatim so
// callers can pass them through.
type APIError struct {
	HTTPStatus int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("toss api error: %s - %s (status %d)", e.Code, e.Message, e.HTTPStatus)
}

// ConfirmPayment asks the provider to finalize a one-time charge for the
// given payment key, order id and amount.
func (c *Client) ConfirmPayment(ctx context.Context, paymentKey, orderID string, amount int64) (*Payment, error) {
	payload := map[string]interface{}{
		"paymentKey": paymentKey,
		"orderId":    orderID,
		"amount":     amount,
	}
	var result Payment
	if err := c.doRequest(ctx, "/v1/payments/confirm", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IssueBillingKey exchanges a one-time auth key for a reusable billing key
// bound to the customer key.
func (c *Client) IssueBillingKey(ctx context.Context, authKey, customerKey string) (*BillingKey, error) {
	payload := map[string]interface{}{
		"authKey":     authKey,
		"customerKey": customerKey,
	}
	var result BillingKey
	if err := c.doRequest(ctx, "/v1/billing/authorizations/issue", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChargeBillingKey executes a charge against a stored billing key.
func (c *Client) ChargeBillingKey(ctx context.Context, billingKey, customerKey, orderID, orderName string, amount int64) (*Payment, error) {
	payload := map[string]interface{}{
		"customerKey": customerKey,
		"orderId":     orderID,
		"orderName":   orderName,
		"amount":      amount,
	}
	var result Payment
	if err := c.doRequest(ctx, "/v1/billing/"+billingKey, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// doRequest is a generic helper that POSTs a JSON payload to the given path
// and decodes either the success body or the provider's error body.
func (c *Client) doRequest(ctx context.Context, path string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.encodeSecretKey())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		if err := json.Unmarshal(bodyBytes, apiErr); err != nil {
			log.Printf("level=warn component=toss_client path=%s status=%d msg=\"non-2xx response (unparsable error body)\"", path, resp.StatusCode)
			return fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=toss_client path=%s status=%d code=%q msg=%q", path, resp.StatusCode, apiErr.Code, apiErr.Message)
		return apiErr
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		return fmt.Errorf("failed to decode success response: %w", err)
	}
	return nil
}

// encodeSecretKey produces the Basic-auth credential: base64(secretKey + ":").
func (c *Client) encodeSecretKey() string {
	return base64.StdEncoding.EncodeToString([]byte(c.SecretKey + ":"))
}

// ParseProviderTime parses the RFC3339 timestamps the provider emits
// (e.g. approvedAt, authenticatedAt). A nil result means the value was
// absent or unparsable.
func ParseProviderTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
