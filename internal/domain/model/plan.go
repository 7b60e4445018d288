package model

import (
	"time"

	"telegram-group-subscription/internal/domain"
)

// Plan is a purchasable access plan with a fixed duration and a price in
// BRL cents. Plans are loaded from configuration once at startup and never
// change at runtime.
type Plan struct {
	ID           string
	Name         string
	DurationDays int
	PriceCents   int64
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// Duration returns the plan length as a time.Duration.
func (p *Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// NewPlan validates and constructs a plan.
func NewPlan(id, name string, durationDays int, priceCents int64) (*Plan, error) {
	if id == "" || name == "" || durationDays <= 0 || priceCents <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:           id,
		Name:         name,
		DurationDays: durationDays,
		PriceCents:   priceCents,
	}, nil
}
