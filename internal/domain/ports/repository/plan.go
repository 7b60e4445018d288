package repository

import (
	"context"

	"telegram-group-subscription/internal/domain/model"
)

// PlanRepository serves the static plan catalog loaded at startup.
type PlanRepository interface {
	FindByID(ctx context.Context, id string) (*model.Plan, error)
	List(ctx context.Context) ([]*model.Plan, error)
}
