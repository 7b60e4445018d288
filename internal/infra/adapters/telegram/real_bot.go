// File: internal/infra/adapters/telegram/real_bot.go
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/application"
	"telegram-group-subscription/internal/config"
	"telegram-group-subscription/internal/domain/ports/adapter"
	red "telegram-group-subscription/internal/infra/redis"
)

var (
	_ adapter.AccessGateway = (*RealBotAdapter)(nil)
	_ adapter.Notifier      = (*RealBotAdapter)(nil)
)

// RealBotAdapter drives the Telegram Bot API: group membership (the
// access gateway), user messaging, and the polling loop that feeds
// commands and button presses to the facade.
type RealBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter // nil when redis is disabled
	log         *zerolog.Logger

	adminIDs      map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealBotAdapter(cfg *config.BotConfig, rateLimiter *red.RateLimiter, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	adminIDs := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminIDs[id] = struct{}{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	botLog := logger.With().Str("component", "TelegramBot").Logger()
	return &RealBotAdapter{
		bot:           bot,
		cfg:           cfg,
		rateLimiter:   rateLimiter,
		log:           &botLog,
		adminIDs:      adminIDs,
		updateWorkers: workers,
	}, nil
}

// SetFacade breaks the construction cycle: the use cases behind the
// facade use this adapter as their access gateway, so the facade only
// exists after the adapter does. Must be called before StartPolling.
func (r *RealBotAdapter) SetFacade(f *application.BotFacade) { r.facade = f }

// ---- adapter.AccessGateway ----

// Grant lifts any ban so the subscriber can rejoin, then sends a fresh
// single-use invite link.
func (r *RealBotAdapter) Grant(ctx context.Context, subscriberID string) error {
	userID, err := parseSubscriberID(subscriberID)
	if err != nil {
		return err
	}
	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: r.cfg.GroupID, UserID: userID},
		OnlyIfBanned:     true,
	}
	if _, err := r.bot.Request(unban); err != nil {
		return fmt.Errorf("unban %d: %w", userID, err)
	}

	link, err := r.createInviteLink(ctx)
	if err != nil {
		return fmt.Errorf("invite link for %d: %w", userID, err)
	}
	return r.SendButtons(ctx, subscriberID, "Here is your invite link to the group:", [][]adapter.InlineButton{
		{{Text: "Join the group", URL: link}},
	})
}

// Revoke bans and immediately unbans: the subscriber is out of the group
// but free to rejoin through a future payment.
func (r *RealBotAdapter) Revoke(ctx context.Context, subscriberID string) error {
	userID, err := parseSubscriberID(subscriberID)
	if err != nil {
		return err
	}
	member := tgbotapi.ChatMemberConfig{ChatID: r.cfg.GroupID, UserID: userID}
	if _, err := r.bot.Request(tgbotapi.BanChatMemberConfig{ChatMemberConfig: member}); err != nil {
		return fmt.Errorf("ban %d: %w", userID, err)
	}
	if _, err := r.bot.Request(tgbotapi.UnbanChatMemberConfig{ChatMemberConfig: member, OnlyIfBanned: true}); err != nil {
		return fmt.Errorf("unban %d after ban: %w", userID, err)
	}
	return nil
}

func (r *RealBotAdapter) createInviteLink(ctx context.Context) (string, error) {
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: r.cfg.GroupID},
		MemberLimit: 1,
		ExpireDate:  int(time.Now().Add(24 * time.Hour).Unix()),
	}
	resp, err := r.bot.Request(cfg)
	if err != nil {
		return "", err
	}
	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", err
	}
	if link.InviteLink == "" {
		return "", errors.New("empty invite link in response")
	}
	return link.InviteLink, nil
}

// ---- adapter.Notifier ----

func (r *RealBotAdapter) SendMessage(ctx context.Context, subscriberID string, text string) error {
	userID, err := parseSubscriberID(subscriberID)
	if err != nil {
		return err
	}
	_, err = r.bot.Send(tgbotapi.NewMessage(userID, text))
	return err
}

func (r *RealBotAdapter) SendButtons(ctx context.Context, subscriberID string, text string, rows [][]adapter.InlineButton) error {
	userID, err := parseSubscriberID(subscriberID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = buildKeyboard(rows)
	_, err = r.bot.Send(msg)
	return err
}

func buildKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	var kb [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var btns []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			if b.URL != "" {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		kb = append(kb, btns)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}

func parseSubscriberID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subscriber id %q is not a telegram user id: %w", id, err)
	}
	return n, nil
}

// ---- polling ----

func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("facade not set")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			select {
			case updateChan <- up:
			case <-ctx.Done():
				wg.Wait()
				return ctx.Err()
			}
		}
	}
}

func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealBotAdapter) handleUpdate(ctx context.Context, up tgbotapi.Update) error {
	switch {
	case up.CallbackQuery != nil:
		return r.handleCallback(ctx, up.CallbackQuery)
	case up.Message != nil && up.Message.IsCommand():
		return r.handleCommand(ctx, up.Message)
	default:
		return nil
	}
}

func (r *RealBotAdapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	userID := msg.From.ID
	if ok := r.allow(ctx, userID, msg.Command()); !ok {
		return r.SendMessage(ctx, strconv.FormatInt(userID, 10), "Too many requests, try again in a minute.")
	}

	id := strconv.FormatInt(userID, 10)
	switch msg.Command() {
	case "start", "help":
		text, rows := r.facade.HandleStart(ctx, id, msg.From.UserName)
		return r.SendButtons(ctx, id, text, rows)
	case "status":
		text, err := r.facade.HandleStatus(ctx, id)
		if err != nil {
			text = "Failed to get your status, try again later."
		}
		return r.SendMessage(ctx, id, text)
	case "subs":
		if _, isAdmin := r.adminIDs[userID]; !isAdmin {
			return nil
		}
		text, err := r.facade.HandleAdminStats(ctx)
		if err != nil {
			text = "Failed to get stats."
		}
		return r.SendMessage(ctx, id, text)
	default:
		return r.SendMessage(ctx, id, "Unknown command. Use /start.")
	}
}

func (r *RealBotAdapter) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if cq.From == nil {
		return nil
	}
	// Always answer so the client stops the spinner.
	if _, err := r.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		r.log.Warn().Err(err).Msg("answer callback failed")
	}

	id := strconv.FormatInt(cq.From.ID, 10)
	data := cq.Data
	switch {
	case data == "cmd:plans":
		text, rows := r.facade.HandleStart(ctx, id, cq.From.UserName)
		return r.SendButtons(ctx, id, text, rows)
	case data == "cmd:status":
		text, err := r.facade.HandleStatus(ctx, id)
		if err != nil {
			text = "Failed to get your status, try again later."
		}
		return r.SendMessage(ctx, id, text)
	case strings.HasPrefix(data, "plan:"):
		planID := strings.TrimPrefix(data, "plan:")
		text, rows, err := r.facade.HandlePlanSelected(ctx, id, cq.From.UserName, planID)
		if err != nil {
			r.log.Error().Err(err).Str("plan_id", planID).Msg("plan selection failed")
			return r.SendMessage(ctx, id, "Could not start the payment, try again later.")
		}
		return r.SendButtons(ctx, id, text, rows)
	default:
		return nil
	}
}

func (r *RealBotAdapter) allow(ctx context.Context, userID int64, command string) bool {
	if r.rateLimiter == nil {
		return true
	}
	ok, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(userID, command), 10, time.Minute)
	if err != nil {
		// rate limiting is advisory; never block on redis trouble
		return true
	}
	return ok
}
