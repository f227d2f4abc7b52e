package payments

import "context"

// CheckoutGateway defines a common interface for subscription payment
// providers.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error)
	VerifySession(ctx context.Context, req VerifyRequest) (VerifyResponse, error)
}
