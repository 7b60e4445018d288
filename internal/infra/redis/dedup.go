package redis

import (
	"context"
	"time"
)

// ProcessedPayments remembers payment ids that were already applied, so
// duplicate deliveries skip the gateway round-trip. This is a fast path
// only: correctness comes from the idempotent subscriber overwrite, so a
// cold or unavailable cache just means extra lookups.
type ProcessedPayments struct {
	client *Client
	ttl    time.Duration
}

func NewProcessedPayments(client *Client, ttl time.Duration) *ProcessedPayments {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ProcessedPayments{client: client, ttl: ttl}
}

func key(paymentID string) string { return "processed_payment:" + paymentID }

// Seen reports whether the payment id was already applied. Errors and a
// nil receiver degrade to "not seen".
func (p *ProcessedPayments) Seen(ctx context.Context, paymentID string) bool {
	if p == nil || p.client == nil {
		return false
	}
	ok, err := p.client.Exists(ctx, key(paymentID))
	if err != nil {
		return false
	}
	return ok
}

// Mark records the payment id as applied. Best-effort.
func (p *ProcessedPayments) Mark(ctx context.Context, paymentID string) {
	if p == nil || p.client == nil {
		return
	}
	_, _ = p.client.SetNX(ctx, key(paymentID), 1, p.ttl)
}
