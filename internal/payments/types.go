package payments

import "time"

// CheckoutRequest starts a hosted checkout for one subscription plan.
// Reference is the opaque id we hand the provider and later get back on
// the return URL.
type CheckoutRequest struct {
	Reference     string
	PlanCode      string
	PriceID       string
	AmountCents   int64
	Currency      string
	CustomerName  string
	CustomerEmail string
}

type CheckoutResponse struct {
	SessionID   string
	CheckoutURL string
	ExpiresAt   string
}

type VerifyRequest struct {
	SessionID string
}

// VerifyResponse reports the provider's view of a session. Paid means
// the subscription can be activated locally.
type VerifyResponse struct {
	Paid                   bool
	ProviderSubscriptionID string
	CurrentPeriodEnd       *time.Time
}
