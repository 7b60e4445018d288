// File: internal/infra/store/plan_repo.go
package store

import (
	"context"

	"telegram-group-subscription/internal/config"
	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*StaticPlanRepo)(nil)

// StaticPlanRepo serves the plan catalog from configuration. Immutable
// after construction, so no locking.
type StaticPlanRepo struct {
	byID  map[string]*model.Plan
	order []*model.Plan
}

func NewStaticPlanRepo(plans []config.PlanConfig) (*StaticPlanRepo, error) {
	r := &StaticPlanRepo{byID: make(map[string]*model.Plan, len(plans))}
	for _, pc := range plans {
		name := pc.Name
		if name == "" {
			name = pc.ID
		}
		p, err := model.NewPlan(pc.ID, name, pc.Days, pc.PriceCents)
		if err != nil {
			return nil, err
		}
		r.byID[p.ID] = p
		r.order = append(r.order, p)
	}
	return r, nil
}

func (r *StaticPlanRepo) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *StaticPlanRepo) List(ctx context.Context) ([]*model.Plan, error) {
	out := make([]*model.Plan, 0, len(r.order))
	for _, p := range r.order {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}
