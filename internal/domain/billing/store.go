package billing

import (
	"context"
	"errors"
	"fmt"

	"vitrina/internal/domain/catalog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Free-tier limits applied to merchants with no active subscription.
const (
	FreeMaxCatalogs           = 1
	FreeMaxProductsPerCatalog = 30
)

type Store interface {
	ListPlans(ctx context.Context) ([]*Plan, error)
	GetPlan(ctx context.Context, id int64) (*Plan, error)
	GetPlanByCode(ctx context.Context, code string) (*Plan, error)
	GetPlanByPriceID(ctx context.Context, providerPriceID string) (*Plan, error)
	GetSubscription(ctx context.Context, userID int64) (*SubscriptionWithPlan, error)
	UpsertSubscription(ctx context.Context, sub *Subscription) error
	CancelSubscription(ctx context.Context, userID int64) error
	Limits(ctx context.Context, userID int64) (catalog.Limits, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) ListPlans(ctx context.Context) ([]*Plan, error) {
	query := `
		SELECT id, code, name, price_cents, currency, provider_price_id,
		       max_catalogs, max_products_per_catalog, is_active, created_at
		FROM subscription_plans
		WHERE is_active = true
		ORDER BY price_cents ASC;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.Currency, &p.ProviderPriceID,
			&p.MaxCatalogs, &p.MaxProductsPerCatalog, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return plans, nil
}

func (r *Repository) getPlan(ctx context.Context, where string, arg any) (*Plan, error) {
	query := `
		SELECT id, code, name, price_cents, currency, provider_price_id,
		       max_catalogs, max_products_per_catalog, is_active, created_at
		FROM subscription_plans
		WHERE ` + where

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p := &Plan{}
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.Currency, &p.ProviderPriceID,
			&p.MaxCatalogs, &p.MaxProductsPerCatalog, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

func (r *Repository) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	return r.getPlan(ctx, `id = $1`, id)
}

func (r *Repository) GetPlanByCode(ctx context.Context, code string) (*Plan, error) {
	return r.getPlan(ctx, `code = $1`, code)
}

func (r *Repository) GetPlanByPriceID(ctx context.Context, providerPriceID string) (*Plan, error) {
	return r.getPlan(ctx, `provider_price_id = $1`, providerPriceID)
}

func (r *Repository) GetSubscription(ctx context.Context, userID int64) (*SubscriptionWithPlan, error) {
	query := `
		SELECT s.id, s.user_id, s.plan_id, s.status, s.provider_subscription_id,
		       s.current_period_end, s.cancel_at_period_end, s.created_at, s.updated_at,
		       p.id, p.code, p.name, p.price_cents, p.currency, p.provider_price_id,
		       p.max_catalogs, p.max_products_per_catalog, p.is_active, p.created_at
		FROM user_subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.user_id = $1;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	out := &SubscriptionWithPlan{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&out.ID, &out.UserID, &out.PlanID, &out.Status, &out.ProviderSubscriptionID,
		&out.CurrentPeriodEnd, &out.CancelAtPeriodEnd, &out.CreatedAt, &out.UpdatedAt,
		&out.Plan.ID, &out.Plan.Code, &out.Plan.Name, &out.Plan.PriceCents, &out.Plan.Currency,
		&out.Plan.ProviderPriceID, &out.Plan.MaxCatalogs, &out.Plan.MaxProductsPerCatalog,
		&out.Plan.IsActive, &out.Plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return out, nil
}

// UpsertSubscription writes the merchant's single subscription row,
// replacing whatever plan and status were there before.
func (r *Repository) UpsertSubscription(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO user_subscriptions
			(user_id, plan_id, status, provider_subscription_id, current_period_end, cancel_at_period_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			provider_subscription_id = EXCLUDED.provider_subscription_id,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at = now()
		RETURNING id, created_at, updated_at;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, query,
		sub.UserID, sub.PlanID, sub.Status, sub.ProviderSubscriptionID,
		sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd).
		Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// CancelSubscription marks the subscription to lapse at period end
// rather than cutting access immediately.
func (r *Repository) CancelSubscription(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cmd, err := r.db.Exec(ctx,
		`UPDATE user_subscriptions SET cancel_at_period_end = true, updated_at = now() WHERE user_id = $1;`,
		userID)
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Limits resolves the effective quota for a merchant. No subscription,
// or one in a non-active status, falls back to the free tier.
func (r *Repository) Limits(ctx context.Context, userID int64) (catalog.Limits, error) {
	free := catalog.Limits{
		MaxCatalogs:           FreeMaxCatalogs,
		MaxProductsPerCatalog: FreeMaxProductsPerCatalog,
	}

	sub, err := r.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return free, nil
		}
		return catalog.Limits{}, err
	}
	if sub.Status != StatusActive {
		return free, nil
	}

	return catalog.Limits{
		MaxCatalogs:           sub.Plan.MaxCatalogs,
		MaxProductsPerCatalog: sub.Plan.MaxProductsPerCatalog,
	}, nil
}
