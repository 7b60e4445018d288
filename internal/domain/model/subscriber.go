package model

import "time"

type SubscriberStatus string

const (
	SubscriberStatusActive   SubscriberStatus = "active"
	SubscriberStatusInactive SubscriberStatus = "inactive"
)

// Subscriber is the current access entitlement of one external identity
// (a Telegram user id kept as a string). ActivatedAt and ExpiresAt are
// overwritten as a whole on every approved payment; Status only changes
// as a result of a sweep pass or an explicit admin action, never as a
// side effect of a read.
type Subscriber struct {
	ID          string           `json:"id"`
	Username    string           `json:"username,omitempty"`
	PlanID      string           `json:"plan_id"`
	ActivatedAt time.Time        `json:"activated_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Status      SubscriberStatus `json:"status"`

	// WarnedFor records the ExpiresAt value the advance-expiry warning was
	// sent for. A renewal moves ExpiresAt forward and re-arms the warning.
	WarnedFor time.Time `json:"warned_for,omitempty"`
}

func (s *Subscriber) IsActive() bool { return s != nil && s.Status == SubscriberStatusActive }

// ExpiredAt reports whether the subscriber's entitlement has lapsed at t.
func (s *Subscriber) ExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.After(t)
}
