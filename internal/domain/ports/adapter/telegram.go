package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// AccessGateway wraps the chat platform's membership primitives. Grant is
// unban-to-allow-rejoin plus a fresh invite link; Revoke is ban-then-unban
// so the subscriber may rejoin after a future payment. Failures are logged
// by callers and never roll back subscriber state.
type AccessGateway interface {
	Grant(ctx context.Context, subscriberID string) error
	Revoke(ctx context.Context, subscriberID string) error
}

// Notifier sends chat messages to subscribers. Delivery is best-effort
// and may duplicate under at-least-once processing.
type Notifier interface {
	SendMessage(ctx context.Context, subscriberID string, text string) error
	SendButtons(ctx context.Context, subscriberID string, text string, rows [][]InlineButton) error
}
