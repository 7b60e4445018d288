// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/domain/ports/repository"
	"telegram-group-subscription/internal/infra/logging"
	"telegram-group-subscription/internal/infra/metrics"
)

// Compile-time check
var _ PaymentProcessor = (*paymentProcessor)(nil)

// PaymentProcessor applies a gateway notification to subscriber state
// exactly once despite at-least-once delivery.
type PaymentProcessor interface {
	HandleNotification(ctx context.Context, n model.GatewayNotification) error
}

// ProcessedCache is an optional fast path remembering payment ids that
// were already applied. Correctness never depends on it: the subscriber
// write is an idempotent overwrite either way.
type ProcessedCache interface {
	Seen(ctx context.Context, paymentID string) bool
	Mark(ctx context.Context, paymentID string)
}

type paymentProcessor struct {
	gateway   adapter.PaymentGateway
	checkouts CheckoutRegistry
	plans     repository.PlanRepository
	subs      SubscriptionUseCase
	notifier  adapter.Notifier
	processed ProcessedCache // may be nil
	log       *zerolog.Logger
}

func NewPaymentProcessor(
	gateway adapter.PaymentGateway,
	checkouts CheckoutRegistry,
	plans repository.PlanRepository,
	subs SubscriptionUseCase,
	notifier adapter.Notifier,
	processed ProcessedCache,
	logger *zerolog.Logger,
) *paymentProcessor {
	procLog := logger.With().Str("component", "PaymentProcessor").Logger()
	return &paymentProcessor{
		gateway:   gateway,
		checkouts: checkouts,
		plans:     plans,
		subs:      subs,
		notifier:  notifier,
		processed: processed,
		log:       &procLog,
	}
}

func (p *paymentProcessor) HandleNotification(ctx context.Context, n model.GatewayNotification) error {
	switch n.Kind {
	case model.NotificationKindPayment:
		return p.processPayment(ctx, n.ResourceID)

	case model.NotificationKindOrder:
		order, err := p.gateway.GetMerchantOrder(ctx, n.ResourceID)
		if errors.Is(err, domain.ErrNotFound) {
			logging.With(ctx, p.log).Warn().Str("order_id", n.ResourceID).Msg("merchant order unknown at gateway")
			return nil
		}
		if err != nil {
			metrics.IncPaymentProcessed("error")
			return fmt.Errorf("fetch merchant order %s: %w", n.ResourceID, err)
		}
		var errs []error
		for _, paymentID := range order.PaymentIDs {
			if err := p.processPayment(ctx, paymentID); err != nil {
				// one failing payment must not stop the rest of the order
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)

	default:
		return nil
	}
}

func (p *paymentProcessor) processPayment(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return nil
	}
	if p.processed != nil && p.processed.Seen(ctx, paymentID) {
		metrics.IncPaymentProcessed("duplicate")
		return nil
	}

	// Webhook deliveries carry a trace id in ctx; pick it up so every log
	// line of one delivery correlates.
	log := logging.With(ctx, p.log)

	// The notification body is never trusted for status; only the
	// gateway's own record is authoritative.
	info, err := p.gateway.GetPayment(ctx, paymentID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("payment_id", paymentID).Msg("payment unknown at gateway")
		metrics.IncPaymentProcessed("ignored")
		return nil
	}
	if err != nil {
		metrics.IncPaymentProcessed("error")
		return fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	if !info.Approved() {
		log.Debug().Str("payment_id", paymentID).Str("status", info.Status).Msg("payment not approved, skipping")
		metrics.IncPaymentProcessed("ignored")
		return nil
	}

	key, err := p.correlationKey(ctx, info)
	if err != nil {
		metrics.IncPaymentProcessed("error")
		return err
	}
	if key == "" {
		// This payment can never be attributed; log and move on.
		log.Error().Str("payment_id", paymentID).Msg("approved payment without derivable correlation key")
		metrics.IncPaymentProcessed("unresolved")
		return nil
	}

	co, err := p.checkouts.Resolve(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		// Already consumed, or a session this instance never created.
		log.Info().Str("payment_id", paymentID).Str("preference_id", key).Msg("no pending checkout for payment")
		metrics.IncPaymentProcessed("unresolved")
		return nil
	}
	if err != nil {
		metrics.IncPaymentProcessed("error")
		return err
	}

	// From here on the payment is attributed; tag the delivery context so
	// downstream log lines carry the subscriber.
	ctx = logging.WithSubscriberID(ctx, co.SubscriberID)
	log = logging.With(ctx, p.log)

	plan, err := p.plans.FindByID(ctx, co.PlanID)
	if err != nil {
		log.Error().Err(err).Str("preference_id", key).Str("plan_id", co.PlanID).Msg("checkout references unknown plan")
		metrics.IncPaymentProcessed("unresolved")
		return nil
	}

	if _, err := p.subs.Activate(ctx, co.SubscriberID, co.Username, plan); err != nil {
		metrics.IncPaymentProcessed("error")
		return fmt.Errorf("apply payment %s: %w", paymentID, err)
	}

	// Consuming the checkout after activation is safe: re-processing the
	// same payment against a consumed checkout is a no-op, and against a
	// not-yet-consumed one just rewrites the same activation.
	if err := p.checkouts.Consume(ctx, key); err != nil {
		log.Warn().Err(err).Str("preference_id", key).Msg("consume checkout failed")
	}
	if p.processed != nil {
		p.processed.Mark(ctx, paymentID)
	}
	metrics.IncPaymentProcessed("activated")

	log.Info().
		Str("payment_id", paymentID).
		Str("plan_id", plan.ID).
		Msg("payment applied")

	if err := p.notifier.SendMessage(ctx, co.SubscriberID,
		fmt.Sprintf("Payment confirmed. Your %s access is active, the invite link is on its way.", plan.Name)); err != nil {
		log.Warn().Err(err).Msg("confirmation message not delivered")
	}
	return nil
}

// correlationKey derives the checkout preference id from the payment.
// Some gateway responses carry it directly; otherwise it is reachable
// through the merchant order.
func (p *paymentProcessor) correlationKey(ctx context.Context, info *adapter.PaymentInfo) (string, error) {
	if info.PreferenceID != "" {
		return info.PreferenceID, nil
	}
	if info.OrderID == "" {
		return "", nil
	}
	order, err := p.gateway.GetMerchantOrder(ctx, info.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch merchant order %s: %w", info.OrderID, err)
	}
	return order.PreferenceID, nil
}
