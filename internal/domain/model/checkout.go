package model

import "time"

// PendingCheckout is an initiated, not-yet-confirmed payment. It is keyed
// by the gateway-issued checkout preference id, which later payment
// notifications are correlated back to. Records are created by the
// checkout registry and consumed (read, then deleted) when the matching
// notification is processed; they are never mutated in place.
type PendingCheckout struct {
	PreferenceID string    `json:"preference_id"`
	SubscriberID string    `json:"subscriber_id"`
	Username     string    `json:"username,omitempty"`
	PlanID       string    `json:"plan_id"`
	CreatedAt    time.Time `json:"created_at"`
}
