/**
 * @description
 * This package provides a minimal client for the Supabase auth (GoTrue) API.
 * The only operation this service needs is exchanging an authorization code
 * for a session after the email-confirmation / OAuth redirect.
 */
package supabaseauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for a Supabase project's auth endpoints.
type Client struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client
}

// NewClient creates a new Supabase auth client for the given project URL and
// publishable (anon) key.
func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		AnonKey: anonKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Session is the token pair returned by a successful code exchange.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ErrorResponse is the auth API's error body.
type ErrorResponse struct {
	Code    string `json:"error_code"`
	Message string `json:"msg"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("supabase auth error: %s - %s", e.Code, e.Message)
}

// ExchangeCodeForSession exchanges a PKCE authorization code for a session.
func (c *Client) ExchangeCodeForSession(ctx context.Context, code string) (*Session, error) {
	payload := map[string]string{"auth_code": code}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	url := c.BaseURL + "/auth/v1/token?grant_type=pkce"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.AnonKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			return nil, fmt.Errorf("failed to decode auth error response (status %d)", resp.StatusCode)
		}
		return nil, &errResp
	}

	var session Session
	if err := json.Unmarshal(bodyBytes, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	return &session, nil
}
