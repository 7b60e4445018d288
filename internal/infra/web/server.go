// File: internal/infra/web/server.go
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/usecase"
)

// Server is the credential-protected admin API. Every mutation it offers
// goes through the subscription use case, the same write path the
// payment processor and the sweeper use.
type Server struct {
	subUC     usecase.SubscriptionUseCase
	checkouts usecase.CheckoutRegistry
	plans     usecase.PlanCatalog
	sessions  *SessionManager
	log       *zerolog.Logger
}

func NewServer(subUC usecase.SubscriptionUseCase, checkouts usecase.CheckoutRegistry, plans usecase.PlanCatalog, sessions *SessionManager, logger *zerolog.Logger) *Server {
	webLog := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		subUC:     subUC,
		checkouts: checkouts,
		plans:     plans,
		sessions:  sessions,
		log:       &webLog,
	}
}

// RegisterRoutes mounts the admin API on the given router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/auth/login", s.handleLogin)
	r.Post("/api/v1/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/api/v1/plans", s.handlePlansList)
		r.Get("/api/v1/subscribers", s.handleSubscribersList)
		r.Post("/api/v1/subscribers", s.handleSubscriberAdd)
		r.Delete("/api/v1/subscribers/{id}", s.handleSubscriberRemove)
		r.Patch("/api/v1/subscribers/{id}/expiry", s.handleExpiryAdjust)
		r.Get("/api/v1/checkouts", s.handleCheckoutsList)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.sessions.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
