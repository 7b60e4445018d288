package repository

import (
	"context"

	"telegram-group-subscription/internal/domain/model"
)

// CheckoutRepository owns the PendingCheckouts table, keyed by the
// gateway-issued preference id.
type CheckoutRepository interface {
	// Save persists a new pending checkout.
	Save(ctx context.Context, c *model.PendingCheckout) error
	// FindByKey returns a copy of the checkout or domain.ErrNotFound.
	FindByKey(ctx context.Context, preferenceID string) (*model.PendingCheckout, error)
	// Delete removes a consumed checkout; deleting an absent key is a no-op.
	Delete(ctx context.Context, preferenceID string) error
	// ListAll returns a snapshot, used by the admin panel.
	ListAll(ctx context.Context) ([]*model.PendingCheckout, error)
}
