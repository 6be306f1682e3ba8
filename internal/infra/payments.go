package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutSession is returned by the payment provider when a hosted checkout
// is opened for an order.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"` // customer-facing redirect target
}

// SessionStatus is the provider's view of a checkout session.
type SessionStatus struct {
	ID   string `json:"id"`
	Paid bool   `json:"paid"`
}

// PaymentClient talks to the external payment provider's REST API. Payment
// capture happens entirely on the provider's side; the backend only opens
// sessions and verifies their outcome.
type PaymentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewPaymentClient(baseURL, apiKey string) *PaymentClient {
	return &PaymentClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateSession opens a hosted checkout session for the given order total.
func (c *PaymentClient) CreateSession(ctx context.Context, orderNumber int64, amount decimal.Decimal, customerEmail string) (*CheckoutSession, error) {
	payload := map[string]any{
		"reference":      fmt.Sprintf("order-%d", orderNumber),
		"amount":         amount.StringFixed(2),
		"currency":       "EUR",
		"customer_email": customerEmail,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payments: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payments: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payments: provider returned %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("payments: decode response: %w", err)
	}
	return &session, nil
}

// VerifySession queries the provider for the final state of a session.
func (c *PaymentClient) VerifySession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("payments: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payments: provider returned %d", resp.StatusCode)
	}

	var status SessionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("payments: decode response: %w", err)
	}
	return &status, nil
}
