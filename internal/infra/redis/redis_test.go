// File: internal/infra/redis/redis_test.go
package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"telegram-group-subscription/internal/config"
	red "telegram-group-subscription/internal/infra/redis"
)

func newTestClient(t *testing.T) *red.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := red.NewClient(context.Background(), &config.RedisConfig{URL: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestProcessedPayments(t *testing.T) {
	ctx := context.Background()

	t.Run("marks and remembers payment ids", func(t *testing.T) {
		cache := red.NewProcessedPayments(newTestClient(t), time.Hour)
		if cache.Seen(ctx, "pay-1") {
			t.Error("expected a fresh cache to report not seen")
		}
		cache.Mark(ctx, "pay-1")
		if !cache.Seen(ctx, "pay-1") {
			t.Error("expected pay-1 to be seen after marking")
		}
		if cache.Seen(ctx, "pay-2") {
			t.Error("expected pay-2 to be unseen")
		}
	})

	t.Run("nil cache degrades to not seen", func(t *testing.T) {
		var cache *red.ProcessedPayments
		if cache.Seen(ctx, "pay-1") {
			t.Error("nil cache must report not seen")
		}
		cache.Mark(ctx, "pay-1") // must not panic
	})
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit then refuses", func(t *testing.T) {
		rl := red.NewRateLimiter(newTestClient(t))
		key := red.UserCommandKey(42, "start")
		for i := 0; i < 3; i++ {
			ok, err := rl.Allow(ctx, key, 3, time.Minute)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatalf("request %d should be allowed", i+1)
			}
		}
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("expected the fourth request to be refused")
		}
	})

	t.Run("keys are scoped per user and command", func(t *testing.T) {
		rl := red.NewRateLimiter(newTestClient(t))
		if _, err := rl.Allow(ctx, red.UserCommandKey(1, "start"), 1, time.Minute); err != nil {
			t.Fatal(err)
		}
		ok, err := rl.Allow(ctx, red.UserCommandKey(2, "start"), 1, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Error("another user's quota must be independent")
		}
	})

	t.Run("nil limiter always allows", func(t *testing.T) {
		var rl *red.RateLimiter
		ok, err := rl.Allow(ctx, "any", 1, time.Minute)
		if err != nil || !ok {
			t.Errorf("nil limiter should allow, got ok=%v err=%v", ok, err)
		}
	})
}
