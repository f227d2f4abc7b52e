package billing

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("resource not found")
	QueryTimeoutDuration = time.Second * 5
)

// Subscription statuses as stored. Only an active subscription grants
// its plan's limits.
const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusCanceled = "canceled"
	StatusExpired  = "expired"
)

// Plan is a sellable subscription tier. Zero in a limit column means
// unlimited.
type Plan struct {
	ID                    int64     `json:"id"`
	Code                  string    `json:"code"`
	Name                  string    `json:"name"`
	PriceCents            int64     `json:"price_cents"`
	Currency              string    `json:"currency"`
	ProviderPriceID       string    `json:"-"`
	MaxCatalogs           int       `json:"max_catalogs"`
	MaxProductsPerCatalog int       `json:"max_products_per_catalog"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
}

// Subscription links a merchant to a plan. One row per user, upserted
// as the provider reports state changes.
type Subscription struct {
	ID                     int64      `json:"id"`
	UserID                 int64      `json:"user_id"`
	PlanID                 int64      `json:"plan_id"`
	Status                 string     `json:"status"`
	ProviderSubscriptionID string     `json:"-"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool       `json:"cancel_at_period_end"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// SubscriptionWithPlan is the shape the billing endpoints return.
type SubscriptionWithPlan struct {
	Subscription
	Plan Plan `json:"plan"`
}
