// File: internal/config/config_test.go
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"telegram-group-subscription/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
bot:
  token: "123:abc"
  group_id: 1234567890
payment:
  mercadopago:
    access_token: "APP_USR-token"
plans:
  - id: mensal
    name: Mensal
    days: 30
    price_cents: 2990
`

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := config.LoadConfig(writeConfig(t, minimalConfig), false)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
		}
		if cfg.Server.WebhookPath != "/webhook/mercadopago" {
			t.Errorf("unexpected webhook path: %q", cfg.Server.WebhookPath)
		}
		if cfg.Sweeper.Interval != time.Hour {
			t.Errorf("expected default sweep interval 1h, got %v", cfg.Sweeper.Interval)
		}
		if cfg.Sweeper.WarnBefore != 72*time.Hour {
			t.Errorf("expected default warn window 72h, got %v", cfg.Sweeper.WarnBefore)
		}
		if cfg.Storage.Dir != "data" {
			t.Errorf("expected default storage dir, got %q", cfg.Storage.Dir)
		}
		if cfg.Bot.Workers != 8 {
			t.Errorf("expected default workers 8, got %d", cfg.Bot.Workers)
		}
	})

	t.Run("normalizes the group id to a supergroup id", func(t *testing.T) {
		cfg, err := config.LoadConfig(writeConfig(t, minimalConfig), false)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Bot.GroupID != -1001234567890 {
			t.Errorf("expected -1001234567890, got %d", cfg.Bot.GroupID)
		}
	})

	t.Run("keeps an already prefixed group id", func(t *testing.T) {
		if got := config.NormalizeGroupID(-1001234567890); got != -1001234567890 {
			t.Errorf("expected unchanged id, got %d", got)
		}
	})

	t.Run("requires the bot token outside dev mode", func(t *testing.T) {
		cfg := `
payment:
  mercadopago:
    access_token: "x"
plans:
  - {id: mensal, name: Mensal, days: 30, price_cents: 2990}
`
		if _, err := config.LoadConfig(writeConfig(t, cfg), false); err == nil {
			t.Error("expected an error for a missing token")
		}
		if _, err := config.LoadConfig(writeConfig(t, cfg), true); err != nil {
			t.Errorf("dev mode should tolerate a missing token, got: %v", err)
		}
	})

	t.Run("requires at least one plan", func(t *testing.T) {
		cfg := `
bot: {token: "x"}
payment: {mercadopago: {access_token: "x"}}
`
		if _, err := config.LoadConfig(writeConfig(t, cfg), false); err == nil {
			t.Error("expected an error for missing plans")
		}
	})

	t.Run("rejects duplicate plan ids", func(t *testing.T) {
		cfg := minimalConfig + `
  - id: mensal
    name: Duplicado
    days: 60
    price_cents: 4990
`
		if _, err := config.LoadConfig(writeConfig(t, cfg), false); err == nil {
			t.Error("expected an error for duplicate plan ids")
		}
	})

	t.Run("rejects a warn window longer than the shortest plan", func(t *testing.T) {
		cfg := minimalConfig + `
sweeper:
  warn_before: 800h
`
		if _, err := config.LoadConfig(writeConfig(t, cfg), false); err == nil {
			t.Error("expected an error for an oversized warn window")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}
