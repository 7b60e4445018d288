// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
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
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase is the only write path for subscriber state. The
// payment processor, the expiry sweeper and the admin API all mutate
// subscribers through it, never through the repository directly.
type SubscriptionUseCase interface {
	// Activate records an approved payment: overwrites the subscriber with
	// status=active and expiry = now + plan duration (renewal resets, it
	// does not extend), then grants group access best-effort.
	Activate(ctx context.Context, subscriberID, username string, plan *model.Plan) (*model.Subscriber, error)
	// Expire marks the subscriber inactive and revokes access, after
	// re-checking under the table lock that the entitlement has in fact
	// lapsed; a stale sweep decision against a renewed subscriber is a
	// no-op. Revoke and the store write remain independent: each is
	// attempted even if the other fails.
	Expire(ctx context.Context, subscriberID string) error
	// Warn sends the advance-expiry warning at most once per expiry cycle.
	Warn(ctx context.Context, subscriberID string) error
	// AdjustExpiry overwrites ExpiresAt (admin only) and re-arms the warning.
	AdjustExpiry(ctx context.Context, subscriberID string, expiresAt time.Time) (*model.Subscriber, error)
	// Remove revokes access and deletes the record (admin only).
	Remove(ctx context.Context, subscriberID string) error

	Get(ctx context.Context, subscriberID string) (*model.Subscriber, error)
	List(ctx context.Context, status model.SubscriberStatus) ([]*model.Subscriber, error)
	Snapshot(ctx context.Context) ([]*model.Subscriber, error)
}

type subscriptionUC struct {
	subs     repository.SubscriberRepository
	access   adapter.AccessGateway
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriberRepository, access adapter.AccessGateway, notifier adapter.Notifier, logger *zerolog.Logger) *subscriptionUC {
	ucLog := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, access: access, notifier: notifier, log: &ucLog}
}

func (uc *subscriptionUC) Activate(ctx context.Context, subscriberID, username string, plan *model.Plan) (*model.Subscriber, error) {
	if subscriberID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}

	// The expiry is computed inside the mutate callback, i.e. under the
	// table lock: of two concurrent activations the one serialized later
	// also computes the later expiry, so no extension is ever lost.
	sub, err := uc.subs.Upsert(ctx, subscriberID, func(existing *model.Subscriber) (*model.Subscriber, error) {
		now := time.Now()
		next := &model.Subscriber{
			ID:          subscriberID,
			Username:    username,
			PlanID:      plan.ID,
			ActivatedAt: now,
			ExpiresAt:   now.Add(plan.Duration()),
			Status:      model.SubscriberStatusActive,
		}
		if next.Username == "" && existing != nil {
			next.Username = existing.Username
		}
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("activate %s: %w", subscriberID, err)
	}

	// Grant only after the durable write. A failure here leaves the
	// subscriber active-but-ungranted, which the operator reconciles; it
	// never rolls back state.
	if err := uc.access.Grant(ctx, subscriberID); err != nil {
		metrics.IncAccessGrant(false)
		uc.log.Error().Err(err).Str("subscriber_id", subscriberID).Msg("grant failed after activation")
	} else {
		metrics.IncAccessGrant(true)
	}
	return sub, nil
}

var errNotExpired = errors.New("subscriber not expired")

func (uc *subscriptionUC) Expire(ctx context.Context, subscriberID string) error {
	// The sweep decides from a snapshot; the decision is only executed if
	// it still holds under the table lock. A renewal serialized between
	// snapshot and claim moved ExpiresAt forward and must win.
	now := time.Now()
	_, updateErr := uc.subs.Update(ctx, subscriberID, func(s *model.Subscriber) error {
		if !s.IsActive() || !s.ExpiredAt(now) {
			return errNotExpired
		}
		s.Status = model.SubscriberStatusInactive
		return nil
	})
	if errors.Is(updateErr, errNotExpired) || errors.Is(updateErr, domain.ErrNotFound) {
		return nil
	}

	// Revoke is attempted even when the store write failed: the record is
	// then still active and expired, so the next sweep retries the write.
	revokeErr := uc.access.Revoke(ctx, subscriberID)
	metrics.IncAccessRevoke(revokeErr == nil)
	if revokeErr != nil {
		uc.log.Error().Err(revokeErr).Str("subscriber_id", subscriberID).Msg("revoke failed")
	}

	if updateErr != nil {
		uc.log.Error().Err(updateErr).Str("subscriber_id", subscriberID).Msg("mark inactive failed")
	} else {
		metrics.IncSubscriptionsExpired()
		if err := uc.notifier.SendMessage(ctx, subscriberID,
			"Your group access has expired. Use /start to renew."); err != nil {
			uc.log.Warn().Err(err).Str("subscriber_id", subscriberID).Msg("expiry notice not delivered")
		}
	}
	return errors.Join(revokeErr, updateErr)
}

var errAlreadyWarned = errors.New("already warned for this expiry")

func (uc *subscriptionUC) Warn(ctx context.Context, subscriberID string) error {
	var expiresAt time.Time
	// Claim the warning under the table lock before sending, so a sweep
	// tick racing another never produces two warnings for one expiry.
	_, err := uc.subs.Update(ctx, subscriberID, func(s *model.Subscriber) error {
		if s.Status != model.SubscriberStatusActive {
			return errAlreadyWarned
		}
		if s.WarnedFor.Equal(s.ExpiresAt) {
			return errAlreadyWarned
		}
		s.WarnedFor = s.ExpiresAt
		expiresAt = s.ExpiresAt
		return nil
	})
	if errors.Is(err, errAlreadyWarned) {
		return nil
	}
	if err != nil {
		return err
	}

	metrics.IncExpiryWarning()
	text := fmt.Sprintf("Your group access expires on %s. Use /start to renew and keep your access.",
		expiresAt.Format("02 Jan 2006 15:04 MST"))
	if err := uc.notifier.SendMessage(ctx, subscriberID, text); err != nil {
		uc.log.Warn().Err(err).Str("subscriber_id", subscriberID).Msg("expiry warning not delivered")
	}
	return nil
}

func (uc *subscriptionUC) AdjustExpiry(ctx context.Context, subscriberID string, expiresAt time.Time) (*model.Subscriber, error) {
	if expiresAt.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return uc.subs.Update(ctx, subscriberID, func(s *model.Subscriber) error {
		s.ExpiresAt = expiresAt
		s.WarnedFor = time.Time{}
		return nil
	})
}

func (uc *subscriptionUC) Remove(ctx context.Context, subscriberID string) error {
	revokeErr := uc.access.Revoke(ctx, subscriberID)
	metrics.IncAccessRevoke(revokeErr == nil)
	if revokeErr != nil {
		uc.log.Error().Err(revokeErr).Str("subscriber_id", subscriberID).Msg("revoke failed during removal")
	}
	if err := uc.subs.Delete(ctx, subscriberID); err != nil {
		return errors.Join(revokeErr, err)
	}
	return revokeErr
}

func (uc *subscriptionUC) Get(ctx context.Context, subscriberID string) (*model.Subscriber, error) {
	return uc.subs.FindByID(ctx, subscriberID)
}

func (uc *subscriptionUC) List(ctx context.Context, status model.SubscriberStatus) ([]*model.Subscriber, error) {
	return uc.subs.ListByStatus(ctx, status)
}

func (uc *subscriptionUC) Snapshot(ctx context.Context) ([]*model.Subscriber, error) {
	return uc.subs.ListAll(ctx)
}
