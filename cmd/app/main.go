// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telegram-group-subscription/internal/application"
	"telegram-group-subscription/internal/config"
	"telegram-group-subscription/internal/domain/ports/adapter"
	payAdapters "telegram-group-subscription/internal/infra/adapters/payment"
	tele "telegram-group-subscription/internal/infra/adapters/telegram"
	httpapi "telegram-group-subscription/internal/infra/http"
	"telegram-group-subscription/internal/infra/logging"
	"telegram-group-subscription/internal/infra/metrics"
	red "telegram-group-subscription/internal/infra/redis"
	"telegram-group-subscription/internal/infra/sched"
	"telegram-group-subscription/internal/infra/store"
	"telegram-group-subscription/internal/infra/web"
	"telegram-group-subscription/internal/infra/worker"
	"telegram-group-subscription/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway and bot)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Storage ----
	subRepo, err := store.NewFileSubscriberRepo(cfg.Storage.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("open subscriber store")
	}
	coRepo, err := store.NewFileCheckoutRepo(cfg.Storage.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("open checkout store")
	}
	planRepo, err := store.NewStaticPlanRepo(cfg.Plans)
	if err != nil {
		logger.Fatal().Err(err).Msg("load plans")
	}

	// ---- Redis (optional) ----
	var (
		processed   usecase.ProcessedCache
		rateLimiter *red.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		processed = red.NewProcessedPayments(redisClient, cfg.Redis.DedupTTL)
		rateLimiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Info().Msg("redis disabled, running without dedup cache and rate limits")
	}

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopPaymentGateway()
	} else {
		gateway, err = payAdapters.NewMercadoPagoGateway(cfg.Payment.MercadoPago)
		if err != nil {
			logger.Fatal().Err(err).Msg("mercadopago gateway")
		}
	}

	// ---- Telegram ----
	var (
		access   adapter.AccessGateway
		notifier adapter.Notifier
		realBot  *tele.RealBotAdapter
	)
	if cfg.Runtime.Dev {
		noop := tele.NewNoopBotAdapter(logger)
		access, notifier = noop, noop
	} else {
		realBot, err = tele.NewRealBotAdapter(&cfg.Bot, rateLimiter, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		access, notifier = realBot, realBot
	}

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, access, notifier, logger)
	checkouts := usecase.NewCheckoutRegistry(coRepo, planRepo, gateway, logger)
	plans := usecase.NewPlanCatalog(planRepo)
	processor := usecase.NewPaymentProcessor(gateway, checkouts, planRepo, subUC, notifier, processed, logger)

	// ---- Bot facade and polling ----
	facade := application.NewBotFacade(subUC, checkouts, plans, logger)
	if realBot != nil {
		realBot.SetFacade(facade)
		go func() {
			if err := realBot.StartPolling(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- Webhook server + worker pool ----
	pool := worker.NewPool(cfg.Bot.Workers, logger)
	pool.Start(ctx)
	webhookSrv := httpapi.NewServer(processor, pool, cfg.Server.Port, cfg.Server.WebhookPath, logger)
	go func() {
		if err := webhookSrv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("webhook server")
		}
	}()

	// ---- Admin API + metrics ----
	sessions := web.NewSessionManager(cfg.Admin.JWTSecret, cfg.Admin.Username, cfg.Admin.Password, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	adminSrv := web.NewServer(subUC, checkouts, plans, sessions, logger)
	adminRouter := chi.NewRouter()
	adminSrv.RegisterRoutes(adminRouter)
	adminRouter.Handle("/metrics", promhttp.Handler())
	adminHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           adminRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", adminHTTP.Addr).Msg("admin server listening")
		if err := adminHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("admin server")
		}
	}()

	// ---- Expiry sweeper ----
	sweeper := sched.NewExpiryWorker(cfg.Sweeper.Interval, cfg.Sweeper.WarnBefore, subUC, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := webhookSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("webhook shutdown")
	}
	if err := adminHTTP.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin shutdown")
	}
	pool.Wait()
}
