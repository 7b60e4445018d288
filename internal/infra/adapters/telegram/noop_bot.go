// File: internal/infra/adapters/telegram/noop_bot.go
package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain/ports/adapter"
)

var (
	_ adapter.AccessGateway = (*NoopBotAdapter)(nil)
	_ adapter.Notifier      = (*NoopBotAdapter)(nil)
)

// NoopBotAdapter logs instead of calling Telegram. Used in dev mode.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	botLog := logger.With().Str("component", "NoopBot").Logger()
	return &NoopBotAdapter{log: &botLog}
}

func (b *NoopBotAdapter) Grant(ctx context.Context, subscriberID string) error {
	b.log.Info().Str("subscriber_id", subscriberID).Msg("grant")
	return nil
}

func (b *NoopBotAdapter) Revoke(ctx context.Context, subscriberID string) error {
	b.log.Info().Str("subscriber_id", subscriberID).Msg("revoke")
	return nil
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, subscriberID string, text string) error {
	b.log.Info().Str("subscriber_id", subscriberID).Str("text", text).Msg("message")
	return nil
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, subscriberID string, text string, rows [][]adapter.InlineButton) error {
	b.log.Info().Str("subscriber_id", subscriberID).Str("text", text).Int("rows", len(rows)).Msg("buttons")
	return nil
}
