// File: internal/infra/sched/expiry_worker.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/infra/metrics"
	"telegram-group-subscription/internal/usecase"
)

// ExpiryWorker is the single periodic sweep over all subscribers: warn
// inside the window, revoke on expiry. One cancellable ticker task, no
// per-subscriber timers.
type ExpiryWorker struct {
	interval   time.Duration
	warnBefore time.Duration
	subUC      usecase.SubscriptionUseCase
	log        *zerolog.Logger
}

func NewExpiryWorker(interval, warnBefore time.Duration, subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpiryWorker{
		interval:   interval,
		warnBefore: warnBefore,
		subUC:      subUC,
		log:        &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("warn_before", w.warnBefore).Msg("Starting expiry worker")
	// Run once on startup, then on every tick
	w.Sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one full pass. A failure on one subscriber never aborts the
// rest of the pass.
func (w *ExpiryWorker) Sweep(ctx context.Context) {
	subs, err := w.subUC.Snapshot(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("sweep: snapshot failed")
		return
	}

	now := time.Now()
	counts := map[model.SubscriberStatus]int{}
	for _, s := range subs {
		counts[s.Status]++
		if !s.IsActive() {
			continue
		}
		switch {
		case s.ExpiredAt(now):
			if err := w.subUC.Expire(ctx, s.ID); err != nil {
				w.log.Error().Err(err).Str("subscriber_id", s.ID).Msg("sweep: expire failed")
			}
		case s.ExpiresAt.Sub(now) <= w.warnBefore && !s.WarnedFor.Equal(s.ExpiresAt):
			if err := w.subUC.Warn(ctx, s.ID); err != nil {
				w.log.Error().Err(err).Str("subscriber_id", s.ID).Msg("sweep: warn failed")
			}
		}
	}

	metrics.IncSweepPass()
	metrics.SetSubscribers(string(model.SubscriberStatusActive), counts[model.SubscriberStatusActive])
	metrics.SetSubscribers(string(model.SubscriberStatusInactive), counts[model.SubscriberStatusInactive])
}
