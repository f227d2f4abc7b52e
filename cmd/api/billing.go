package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"vitrina/internal/domain/billing"
	"vitrina/internal/payments"
)

// listPlansHandler godoc
//
//	@Summary	List sellable subscription plans
//	@Tags		billing
//	@Produce	json
//	@Success	200	{array}	billing.Plan
//	@Router		/plans [get]
func (app *application) listPlansHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := app.billing.ListPlans(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, plans); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getSubscriptionHandler godoc
//
//	@Summary		Get the merchant's subscription
//	@Description	Merchants without a subscription row are on the free tier.
//	@Tags			billing
//	@Produce		json
//	@Success		200	{object}	billing.SubscriptionWithPlan
//	@Failure		404	{object}	ErrorResponse	"No subscription, free tier applies"
//	@Security		ApiKeyAuth
//	@Router			/billing/subscription [get]
func (app *application) getSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	sub, err := app.billing.GetSubscription(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sub); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateCheckoutSessionPayload struct {
	PlanCode string `json:"plan_code" validate:"required,max=50"`
}

type CheckoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	Reference   string `json:"reference"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// createCheckoutSessionHandler godoc
//
//	@Summary		Start a hosted checkout for a plan
//	@Description	Returns the provider's checkout URL. The reference must be sent back on finalize.
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateCheckoutSessionPayload	true	"Plan to buy"
//	@Success		201		{object}	CheckoutSessionResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse	"Unknown plan"
//	@Security		ApiKeyAuth
//	@Router			/billing/checkout-session [post]
func (app *application) createCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateCheckoutSessionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	plan, err := app.billing.GetPlanByCode(r.Context(), payload.PlanCode)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	reference, err := app.refHasher.EncodeInt64([]int64{user.ID, plan.ID, time.Now().Unix()})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	customerName := user.Username
	if user.FullName != nil && *user.FullName != "" {
		customerName = *user.FullName
	}

	session, err := app.payments.CreateSession(r.Context(), app.config.Billing.Provider, payments.CheckoutRequest{
		Reference:     reference,
		PlanCode:      plan.Code,
		PriceID:       plan.ProviderPriceID,
		AmountCents:   plan.PriceCents,
		Currency:      plan.Currency,
		CustomerName:  customerName,
		CustomerEmail: user.Email,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := CheckoutSessionResponse{
		SessionID:   session.SessionID,
		CheckoutURL: session.CheckoutURL,
		Reference:   reference,
		ExpiresAt:   session.ExpiresAt,
	}

	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type FinalizeCheckoutPayload struct {
	SessionID string `json:"session_id" validate:"required"`
	Reference string `json:"reference" validate:"required"`
}

// finalizeCheckoutHandler godoc
//
//	@Summary		Finalize a checkout after the provider redirect
//	@Description	Verifies the session with the provider and activates the subscription when paid.
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		FinalizeCheckoutPayload	true	"Session and reference from the return URL"
//	@Success		200		{object}	billing.SubscriptionWithPlan
//	@Failure		400		{object}	ErrorResponse
//	@Failure		402		{object}	ErrorResponse	"Session not paid"
//	@Security		ApiKeyAuth
//	@Router			/billing/finalize [post]
func (app *application) finalizeCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload FinalizeCheckoutPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	parts, err := app.refHasher.DecodeInt64WithError(payload.Reference)
	if err != nil || len(parts) != 3 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid reference"))
		return
	}
	if parts[0] != user.ID {
		app.badRequestResponse(w, r, fmt.Errorf("reference does not belong to this account"))
		return
	}
	planID := parts[1]

	plan, err := app.billing.GetPlan(r.Context(), planID)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	verified, err := app.payments.VerifySession(r.Context(), app.config.Billing.Provider, payments.VerifyRequest{
		SessionID: payload.SessionID,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if !verified.Paid {
		writeJSONError(w, http.StatusPaymentRequired, "checkout session is not paid")
		return
	}

	sub := &billing.Subscription{
		UserID:                 user.ID,
		PlanID:                 plan.ID,
		Status:                 billing.StatusActive,
		ProviderSubscriptionID: verified.ProviderSubscriptionID,
		CurrentPeriodEnd:       verified.CurrentPeriodEnd,
	}
	if err := app.billing.UpsertSubscription(r.Context(), sub); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("subscription activated", "user_id", user.ID, "plan", plan.Code)

	result, err := app.billing.GetSubscription(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelSubscriptionHandler godoc
//
//	@Summary		Cancel the subscription at period end
//	@Description	The plan's limits stay in effect until the current period ends.
//	@Tags			billing
//	@Success		204	"Cancellation scheduled"
//	@Failure		404	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/billing/cancel [post]
func (app *application) cancelSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.billing.CancelSubscription(r.Context(), user.ID); err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
