// File: internal/application/bot_facade.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/usecase"
)

// BotFacade turns bot commands and button presses into use case calls
// and renders the replies. It holds no state of its own.
type BotFacade struct {
	subUC     usecase.SubscriptionUseCase
	checkouts usecase.CheckoutRegistry
	plans     usecase.PlanCatalog
	log       *zerolog.Logger
}

func NewBotFacade(subUC usecase.SubscriptionUseCase, checkouts usecase.CheckoutRegistry, plans usecase.PlanCatalog, logger *zerolog.Logger) *BotFacade {
	fLog := logger.With().Str("component", "BotFacade").Logger()
	return &BotFacade{subUC: subUC, checkouts: checkouts, plans: plans, log: &fLog}
}

// HandleStart renders the plan menu. One button per configured plan plus
// a status shortcut.
func (f *BotFacade) HandleStart(ctx context.Context, subscriberID, username string) (string, [][]adapter.InlineButton) {
	plans, err := f.plans.List(ctx)
	if err != nil || len(plans) == 0 {
		f.log.Error().Err(err).Msg("plan list unavailable")
		return "No plans are available right now, try again later.", nil
	}

	var rows [][]adapter.InlineButton
	for _, p := range plans {
		label := fmt.Sprintf("%s (%d days) R$ %d.%02d", p.Name, p.DurationDays, p.PriceCents/100, p.PriceCents%100)
		rows = append(rows, []adapter.InlineButton{{Text: label, Data: "plan:" + p.ID}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "My status", Data: "cmd:status"}})
	return "Welcome! Pick a plan to get access to the group:", rows
}

// HandleStatus reports the caller's subscription state.
func (f *BotFacade) HandleStatus(ctx context.Context, subscriberID string) (string, error) {
	sub, err := f.subUC.Get(ctx, subscriberID)
	if errors.Is(err, domain.ErrNotFound) {
		return "You have no subscription yet. Use /start to pick a plan.", nil
	}
	if err != nil {
		return "", err
	}
	if !sub.IsActive() {
		return "Your subscription has expired. Use /start to renew.", nil
	}
	return fmt.Sprintf("Your access is active until %s.", sub.ExpiresAt.Format("02 Jan 2006 15:04 MST")), nil
}

// HandlePlanSelected starts a checkout and returns the hosted payment
// link as a URL button.
func (f *BotFacade) HandlePlanSelected(ctx context.Context, subscriberID, username, planID string) (string, [][]adapter.InlineButton, error) {
	co, payURL, err := f.checkouts.Begin(ctx, subscriberID, username, planID)
	if err != nil {
		return "", nil, err
	}
	f.log.Info().
		Str("subscriber_id", subscriberID).
		Str("preference_id", co.PreferenceID).
		Msg("payment link issued")
	rows := [][]adapter.InlineButton{
		{{Text: "Pay now", URL: payURL}},
	}
	return "Open the link below to pay. Access is granted automatically once the payment is approved.", rows, nil
}

// HandleAdminStats summarizes subscriber counts for bot admins.
func (f *BotFacade) HandleAdminStats(ctx context.Context) (string, error) {
	subs, err := f.subUC.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	pending, err := f.checkouts.Pending(ctx)
	if err != nil {
		return "", err
	}

	var active, inactive int
	for _, s := range subs {
		if s.Status == model.SubscriberStatusActive {
			active++
		} else {
			inactive++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Subscribers: %d active, %d inactive\n", active, inactive)
	fmt.Fprintf(&b, "Pending checkouts: %d", len(pending))
	return b.String(), nil
}
