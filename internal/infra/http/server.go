// File: internal/infra/http/server.go
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/infra/logging"
	"telegram-group-subscription/internal/infra/metrics"
	"telegram-group-subscription/internal/infra/worker"
	"telegram-group-subscription/internal/usecase"
)

// Server is the public webhook listener. It acknowledges gateway
// notifications fast: the handler validates the envelope, hands the heavy
// work (gateway lookups, store write, grant) to the worker pool, and
// returns 200. Unresolvable events are acknowledged too; gateways retry
// forever on anything else.
type Server struct {
	processor   usecase.PaymentProcessor
	pool        *worker.Pool
	webhookPath string
	log         *zerolog.Logger
	server      *http.Server
}

func NewServer(processor usecase.PaymentProcessor, pool *worker.Pool, port int, webhookPath string, logger *zerolog.Logger) *Server {
	srvLog := logger.With().Str("component", "WebhookServer").Logger()
	s := &Server{
		processor:   processor,
		pool:        pool,
		webhookPath: webhookPath,
		log:         &srvLog,
	}

	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Post(webhookPath, s.handleNotification)
	// MercadoPago's IPN variant delivers the same event as a GET with
	// topic/id query parameters.
	r.Get(webhookPath, s.handleNotification)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Str("path", s.webhookPath).Msg("webhook server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()
	log := s.log.With().Str("trace_id", traceID).Logger()

	body, _ := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	n := model.ParseGatewayNotification(body)
	if n.Kind == model.NotificationKindUnknown {
		n = notificationFromQuery(r)
	}
	metrics.IncWebhookEvent(string(n.Kind))
	if n.Kind == model.NotificationKindUnknown {
		// Not an event shape we know; ack so the gateway stops retrying.
		log.Debug().RawJSON("body", jsonOrNull(body)).Msg("unrecognized notification, acknowledged")
		s.ok(w)
		return
	}

	log.Info().Str("kind", string(n.Kind)).Str("resource_id", n.ResourceID).Msg("notification received")

	task := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(logging.WithTraceID(ctx, traceID), 60*time.Second)
		defer cancel()
		return s.processor.HandleNotification(ctx, n)
	}
	if err := s.pool.Submit(task); err != nil {
		if domain.IsRetriable(err) {
			// Saturated: refuse so the gateway redelivers later.
			log.Warn().Err(err).Msg("notification queue full")
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		// Redelivery cannot help a terminal submit failure; ack it.
		log.Error().Err(err).Msg("notification not enqueued")
	}
	s.ok(w)
}

func notificationFromQuery(r *http.Request) model.GatewayNotification {
	q := r.URL.Query()
	topic := q.Get("topic")
	if topic == "" {
		topic = q.Get("type")
	}
	id := q.Get("id")
	if id == "" {
		id = q.Get("data.id")
	}
	var kind model.NotificationKind
	switch topic {
	case "payment":
		kind = model.NotificationKindPayment
	case "merchant_order":
		kind = model.NotificationKindOrder
	}
	if kind == model.NotificationKindUnknown || id == "" {
		return model.GatewayNotification{Kind: model.NotificationKindUnknown}
	}
	return model.GatewayNotification{Kind: kind, ResourceID: id}
}

func (s *Server) ok(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func jsonOrNull(b []byte) []byte {
	if json.Valid(b) && len(b) > 0 {
		return b
	}
	return []byte("null")
}
