// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/domain/ports/repository"
	"telegram-group-subscription/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutRegistry = (*checkoutRegistry)(nil)

// CheckoutRegistry records payment intent and resolves gateway-issued
// correlation keys back to subscriber+plan.
type CheckoutRegistry interface {
	// Begin creates a gateway checkout session and persists the pending
	// checkout only after the gateway confirmed session creation. Returns
	// the hosted payment URL.
	Begin(ctx context.Context, subscriberID, username, planID string) (*model.PendingCheckout, string, error)
	// Resolve looks up a pending checkout. domain.ErrNotFound is a normal
	// outcome, not a fault: the session may have been consumed already or
	// created by another instance.
	Resolve(ctx context.Context, preferenceID string) (*model.PendingCheckout, error)
	// Consume deletes a processed checkout; absent keys are a no-op.
	Consume(ctx context.Context, preferenceID string) error
	// Pending returns a snapshot for the admin panel.
	Pending(ctx context.Context) ([]*model.PendingCheckout, error)
}

type checkoutRegistry struct {
	checkouts repository.CheckoutRepository
	plans     repository.PlanRepository
	gateway   adapter.PaymentGateway
	log       *zerolog.Logger
}

func NewCheckoutRegistry(checkouts repository.CheckoutRepository, plans repository.PlanRepository, gateway adapter.PaymentGateway, logger *zerolog.Logger) *checkoutRegistry {
	regLog := logger.With().Str("component", "CheckoutRegistry").Logger()
	return &checkoutRegistry{checkouts: checkouts, plans: plans, gateway: gateway, log: &regLog}
}

func (r *checkoutRegistry) Begin(ctx context.Context, subscriberID, username, planID string) (*model.PendingCheckout, string, error) {
	if subscriberID == "" {
		return nil, "", domain.ErrInvalidArgument
	}
	plan, err := r.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, "", err
	}

	// Gateway first: nothing is persisted unless session creation
	// succeeded, so a slow or failing gateway leaves no partial record.
	session, err := r.gateway.CreateCheckout(ctx, plan.PriceCents, "Group access: "+plan.Name, map[string]string{
		"subscriber_id": subscriberID,
		"plan_id":       plan.ID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("create checkout for %s: %w", subscriberID, err)
	}

	co := &model.PendingCheckout{
		PreferenceID: session.PreferenceID,
		SubscriberID: subscriberID,
		Username:     username,
		PlanID:       plan.ID,
		CreatedAt:    time.Now(),
	}
	if err := r.checkouts.Save(ctx, co); err != nil {
		// The gateway session exists but we cannot correlate it anymore;
		// a payment against it will be logged as unresolvable.
		return nil, "", fmt.Errorf("persist checkout %s: %w", session.PreferenceID, err)
	}

	metrics.IncCheckoutStarted()
	r.log.Info().
		Str("subscriber_id", subscriberID).
		Str("plan_id", plan.ID).
		Str("preference_id", session.PreferenceID).
		Msg("checkout started")
	return co, session.PayURL, nil
}

func (r *checkoutRegistry) Resolve(ctx context.Context, preferenceID string) (*model.PendingCheckout, error) {
	return r.checkouts.FindByKey(ctx, preferenceID)
}

func (r *checkoutRegistry) Consume(ctx context.Context, preferenceID string) error {
	return r.checkouts.Delete(ctx, preferenceID)
}

func (r *checkoutRegistry) Pending(ctx context.Context) ([]*model.PendingCheckout, error) {
	return r.checkouts.ListAll(ctx)
}
