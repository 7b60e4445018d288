// File: internal/infra/sched/expiry_worker_test.go
package sched_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/infra/sched"
	"telegram-group-subscription/internal/infra/store"
	"telegram-group-subscription/internal/usecase"
)

type countingBot struct {
	mu       sync.Mutex
	grants   int
	revokes  int
	messages []string
}

func (b *countingBot) Grant(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.grants++
	return nil
}

func (b *countingBot) Revoke(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revokes++
	return nil
}

func (b *countingBot) SendMessage(ctx context.Context, id, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, text)
	return nil
}

func (b *countingBot) SendButtons(ctx context.Context, id, text string, rows [][]adapter.InlineButton) error {
	return b.SendMessage(ctx, id, text)
}

func (b *countingBot) revokeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revokes
}

func (b *countingBot) warningCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.messages {
		if strings.Contains(m, "expires on") {
			n++
		}
	}
	return n
}

type fixture struct {
	bot    *countingBot
	subUC  usecase.SubscriptionUseCase
	worker *sched.ExpiryWorker
}

func newFixture(t *testing.T, warnBefore time.Duration) *fixture {
	t.Helper()
	repo, err := store.NewFileSubscriberRepo(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := zerolog.Nop()
	bot := &countingBot{}
	subUC := usecase.NewSubscriptionUseCase(repo, bot, bot, &logger)
	return &fixture{
		bot:    bot,
		subUC:  subUC,
		worker: sched.NewExpiryWorker(time.Hour, warnBefore, subUC, &logger),
	}
}

func (f *fixture) seed(t *testing.T, id string, expires time.Time) {
	t.Helper()
	plan := &model.Plan{ID: "mensal", Name: "Mensal", DurationDays: 30, PriceCents: 2990}
	if _, err := f.subUC.Activate(context.Background(), id, "u"+id, plan); err != nil {
		t.Fatal(err)
	}
	if _, err := f.subUC.AdjustExpiry(context.Background(), id, expires); err != nil {
		t.Fatal(err)
	}
}

func TestExpiryWorker_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes an expired subscriber exactly once", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.seed(t, "42", time.Now().Add(-time.Minute))

		f.worker.Sweep(ctx)
		if f.bot.revokeCount() != 1 {
			t.Fatalf("expected one revoke, got %d", f.bot.revokeCount())
		}
		sub, err := f.subUC.Get(ctx, "42")
		if err != nil {
			t.Fatal(err)
		}
		if sub.Status != model.SubscriberStatusInactive {
			t.Errorf("expected inactive, got %q", sub.Status)
		}

		// Sweeps are idempotent: the next pass must not revoke again.
		f.worker.Sweep(ctx)
		if f.bot.revokeCount() != 1 {
			t.Errorf("expected still one revoke, got %d", f.bot.revokeCount())
		}
	})

	t.Run("warns once inside the window", func(t *testing.T) {
		f := newFixture(t, 72*time.Hour)
		f.seed(t, "42", time.Now().Add(24*time.Hour))

		f.worker.Sweep(ctx)
		f.worker.Sweep(ctx)
		if got := f.bot.warningCount(); got != 1 {
			t.Errorf("expected exactly one warning, got %d", got)
		}
		if f.bot.revokeCount() != 0 {
			t.Errorf("expected no revoke inside the window, got %d", f.bot.revokeCount())
		}
	})

	t.Run("renewal re-arms the warning for the new expiry", func(t *testing.T) {
		f := newFixture(t, 72*time.Hour)
		f.seed(t, "42", time.Now().Add(24*time.Hour))

		f.worker.Sweep(ctx)
		if got := f.bot.warningCount(); got != 1 {
			t.Fatalf("expected one warning, got %d", got)
		}

		// Simulate a renewal landing inside the window again.
		f.seed(t, "42", time.Now().Add(48*time.Hour))
		f.worker.Sweep(ctx)
		if got := f.bot.warningCount(); got != 2 {
			t.Errorf("expected a second warning after renewal, got %d", got)
		}
	})

	t.Run("leaves healthy subscribers alone", func(t *testing.T) {
		f := newFixture(t, 72*time.Hour)
		f.seed(t, "42", time.Now().Add(30*24*time.Hour))

		f.worker.Sweep(ctx)
		if f.bot.revokeCount() != 0 {
			t.Errorf("unexpected revoke: %d", f.bot.revokeCount())
		}
		if got := f.bot.warningCount(); got != 0 {
			t.Errorf("unexpected warning: %d", got)
		}
	})

	t.Run("expires every lapsed subscriber in one pass", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.seed(t, "1", time.Now().Add(-time.Minute))
		f.seed(t, "2", time.Now().Add(-time.Minute))

		f.worker.Sweep(ctx)
		actives, err := f.subUC.List(ctx, model.SubscriberStatusActive)
		if err != nil {
			t.Fatal(err)
		}
		if len(actives) != 0 {
			t.Errorf("expected all expired subscribers handled, %d still active", len(actives))
		}
	})
}

func TestExpiryWorker_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
