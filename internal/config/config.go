// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	GroupID  int64   `yaml:"group_id"` // restricted group; "-100" prefix added if missing
	Username string  `yaml:"username"`
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port        int    `yaml:"port"`         // public webhook port
	WebhookPath string `yaml:"webhook_path"` // defaults to /webhook/mercadopago
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type MercadoPagoConfig struct {
	AccessToken     string `yaml:"access_token"`
	NotificationURL string `yaml:"notification_url"`
	BackURL         string `yaml:"back_url"` // where the gateway sends the user after paying
	Sandbox         bool   `yaml:"sandbox"`  // use sandbox_init_point for checkout links
}

type PaymentConfig struct {
	MercadoPago MercadoPagoConfig `yaml:"mercadopago"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

type SweeperConfig struct {
	Interval   time.Duration `yaml:"interval"`
	WarnBefore time.Duration `yaml:"warn_before"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables redis entirely
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

type PlanConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Days       int    `yaml:"days"`
	PriceCents int64  `yaml:"price_cents"`
}

type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Admin   AdminConfig   `yaml:"admin"`
	Payment PaymentConfig `yaml:"payment"`
	Storage StorageConfig `yaml:"storage"`
	Sweeper SweeperConfig `yaml:"sweeper"`
	Redis   RedisConfig   `yaml:"redis"`
	Plans   []PlanConfig  `yaml:"plans"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.WebhookPath == "" {
		cfg.Server.WebhookPath = "/webhook/mercadopago"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data"
	}
	if cfg.Sweeper.Interval <= 0 {
		cfg.Sweeper.Interval = time.Hour
	}
	if cfg.Sweeper.WarnBefore <= 0 {
		cfg.Sweeper.WarnBefore = 72 * time.Hour
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.DedupTTL <= 0 {
		cfg.Redis.DedupTTL = 24 * time.Hour
	}

	// Telegram supergroup ids carry a -100 prefix; accept the raw group id too.
	cfg.Bot.GroupID = NormalizeGroupID(cfg.Bot.GroupID)

	// Minimal validation
	if cfg.Bot.Token == "" && !dev {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Payment.MercadoPago.AccessToken == "" && !dev {
		return nil, errors.New("payment.mercadopago.access_token is required")
	}
	if len(cfg.Plans) == 0 {
		return nil, errors.New("at least one plan is required")
	}
	seen := map[string]struct{}{}
	for _, p := range cfg.Plans {
		if p.ID == "" || p.Days <= 0 || p.PriceCents <= 0 {
			return nil, fmt.Errorf("plan %q: id, days and price_cents are required", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if cfg.Sweeper.WarnBefore >= shortestPlan(cfg.Plans) {
		return nil, errors.New("sweeper.warn_before must be shorter than the shortest plan duration")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// NormalizeGroupID prepends the supergroup marker when the configured id
// is a bare positive group id.
func NormalizeGroupID(id int64) int64 {
	if id > 0 {
		out, err := strconv.ParseInt("-100"+strconv.FormatInt(id, 10), 10, 64)
		if err != nil {
			return id
		}
		return out
	}
	return id
}

func shortestPlan(plans []PlanConfig) time.Duration {
	min := time.Duration(1<<63 - 1)
	for _, p := range plans {
		if d := time.Duration(p.Days) * 24 * time.Hour; d < min {
			min = d
		}
	}
	return min
}
