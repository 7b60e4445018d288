// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanCatalog = (*planCatalog)(nil)

// PlanCatalog exposes the static plan configuration to the bot and the
// admin API.
type PlanCatalog interface {
	Get(ctx context.Context, id string) (*model.Plan, error)
	List(ctx context.Context) ([]*model.Plan, error)
}

type planCatalog struct {
	plans repository.PlanRepository
}

func NewPlanCatalog(plans repository.PlanRepository) *planCatalog {
	return &planCatalog{plans: plans}
}

func (c *planCatalog) Get(ctx context.Context, id string) (*model.Plan, error) {
	return c.plans.FindByID(ctx, id)
}

func (c *planCatalog) List(ctx context.Context) ([]*model.Plan, error) {
	return c.plans.List(ctx)
}
