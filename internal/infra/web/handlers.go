// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.sessions.CheckCredentials(req.Username, req.Password) {
		s.log.Warn().Str("username", req.Username).Msg("admin login rejected")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.sessions.Mint(w)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlansList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleSubscribersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		subs []*model.Subscriber
		err  error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "":
		subs, err = s.subUC.Snapshot(ctx)
	case string(model.SubscriberStatusActive), string(model.SubscriberStatusInactive):
		subs, err = s.subUC.List(ctx, model.SubscriberStatus(status))
	default:
		http.Error(w, "Unknown status filter", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Failed to list subscribers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data  []*model.Subscriber `json:"data"`
		Total int                 `json:"total"`
	}{Data: subs, Total: len(subs)})
}

type subscriberAddRequest struct {
	SubscriberID string `json:"subscriber_id"`
	Username     string `json:"username"`
	PlanID       string `json:"plan_id"`
}

// handleSubscriberAdd performs a manual plan-based activation, e.g. a
// comped membership. Same Activate path as an approved payment.
func (s *Server) handleSubscriberAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req subscriberAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan, err := s.plans.Get(ctx, req.PlanID)
	if err != nil {
		http.Error(w, "Unknown plan", http.StatusBadRequest)
		return
	}
	sub, err := s.subUC.Activate(ctx, req.SubscriberID, req.Username, plan)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to activate subscriber", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleSubscriberRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.subUC.Remove(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Subscriber not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to remove subscriber", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type expiryAdjustRequest struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleExpiryAdjust(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req expiryAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sub, err := s.subUC.AdjustExpiry(r.Context(), id, req.ExpiresAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Subscriber not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "expires_at is required", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to adjust expiry", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleCheckoutsList(w http.ResponseWriter, r *http.Request) {
	checkouts, err := s.checkouts.Pending(r.Context())
	if err != nil {
		http.Error(w, "Failed to list checkouts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, checkouts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
