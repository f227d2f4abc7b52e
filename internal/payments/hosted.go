package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HostedAdapter talks to a hosted-checkout billing provider over its
// JSON API: create a session, send the customer to its URL, look the
// session up again when they come back.
type HostedAdapter struct {
	SecretKey  string
	ReturnURL  string
	CancelURL  string
	BaseURL    string
	httpClient *http.Client
}

func NewHostedAdapter(secret, returnURL, cancelURL, baseURL string) *HostedAdapter {
	return &HostedAdapter{
		SecretKey:  secret,
		ReturnURL:  returnURL,
		CancelURL:  cancelURL,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *HostedAdapter) CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error) {
	payload := map[string]any{
		"reference":  req.Reference,
		"price_id":   req.PriceID,
		"amount":     req.AmountCents,
		"currency":   req.Currency,
		"mode":       "subscription",
		"return_url": h.ReturnURL,
		"cancel_url": h.CancelURL,
		"customer": map[string]string{
			"name":  req.CustomerName,
			"email": req.CustomerEmail,
		},
	}

	body, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		h.BaseURL+"/v1/checkout/sessions", bytes.NewBuffer(body))
	if err != nil {
		return CheckoutResponse{}, fmt.Errorf("checkout session request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+h.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return CheckoutResponse{}, fmt.Errorf("checkout session request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CheckoutResponse{}, fmt.Errorf("checkout session failed: http=%d body=%s", resp.StatusCode, string(raw))
	}

	var res struct {
		ID          string `json:"id"`
		CheckoutURL string `json:"checkout_url"`
		ExpiresAt   string `json:"expires_at"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return CheckoutResponse{}, fmt.Errorf("checkout session decode: %w body=%s", err, string(raw))
	}

	return CheckoutResponse{
		SessionID:   res.ID,
		CheckoutURL: res.CheckoutURL,
		ExpiresAt:   res.ExpiresAt,
	}, nil
}

func (h *HostedAdapter) VerifySession(ctx context.Context, req VerifyRequest) (VerifyResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return VerifyResponse{}, fmt.Errorf("verify requires a session id")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		h.BaseURL+"/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return VerifyResponse{}, fmt.Errorf("session lookup request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+h.SecretKey)

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return VerifyResponse{}, fmt.Errorf("session lookup request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return VerifyResponse{}, fmt.Errorf("session lookup failed: http=%d body=%s", resp.StatusCode, string(raw))
	}

	var res struct {
		Status           string `json:"status"`
		SubscriptionID   string `json:"subscription_id"`
		CurrentPeriodEnd int64  `json:"current_period_end"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return VerifyResponse{}, fmt.Errorf("session lookup decode: %w body=%s", err, string(raw))
	}

	out := VerifyResponse{
		Paid:                   res.Status == "complete" || res.Status == "paid",
		ProviderSubscriptionID: res.SubscriptionID,
	}
	if res.CurrentPeriodEnd > 0 {
		t := time.Unix(res.CurrentPeriodEnd, 0).UTC()
		out.CurrentPeriodEnd = &t
	}
	return out, nil
}
