package repository

import (
	"context"

	"telegram-group-subscription/internal/domain/model"
)

// SubscriberRepository owns all reads and writes of the Subscribers table.
// Implementations must serialize mutations so that concurrent updates to
// the same subscriber are linearizable, and must persist each mutation as
// an atomic whole-table rewrite.
type SubscriberRepository interface {
	// FindByID returns a copy of the subscriber or domain.ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Subscriber, error)
	// ListAll returns a point-in-time snapshot of every subscriber.
	ListAll(ctx context.Context) ([]*model.Subscriber, error)
	// ListByStatus returns a snapshot filtered by status.
	ListByStatus(ctx context.Context, status model.SubscriberStatus) ([]*model.Subscriber, error)
	// Upsert runs mutate under the table lock. existing is nil when the
	// subscriber does not exist yet; the returned record is stored whole.
	Upsert(ctx context.Context, id string, mutate func(existing *model.Subscriber) (*model.Subscriber, error)) (*model.Subscriber, error)
	// Update runs mutate on an existing subscriber under the table lock.
	// Returns domain.ErrNotFound when absent.
	Update(ctx context.Context, id string, mutate func(s *model.Subscriber) error) (*model.Subscriber, error)
	// Delete removes the subscriber record (administrative removal only).
	Delete(ctx context.Context, id string) error
}
