// File: internal/infra/store/checkout_repo.go
package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
)

var _ repository.CheckoutRepository = (*FileCheckoutRepo)(nil)

// FileCheckoutRepo persists the PendingCheckouts table in checkouts.json,
// same locking and atomic-rewrite discipline as the subscriber repo.
type FileCheckoutRepo struct {
	mu        sync.RWMutex
	path      string
	checkouts map[string]*model.PendingCheckout
}

func NewFileCheckoutRepo(dir string) (*FileCheckoutRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	r := &FileCheckoutRepo{
		path:      filepath.Join(dir, "checkouts.json"),
		checkouts: make(map[string]*model.PendingCheckout),
	}
	if err := loadFile(r.path, &r.checkouts); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileCheckoutRepo) Save(ctx context.Context, c *model.PendingCheckout) error {
	if c == nil || c.PreferenceID == "" {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	prev, had := r.checkouts[c.PreferenceID]
	r.checkouts[c.PreferenceID] = &cp
	if err := writeFileAtomic(r.path, r.checkouts); err != nil {
		if had {
			r.checkouts[c.PreferenceID] = prev
		} else {
			delete(r.checkouts, c.PreferenceID)
		}
		return err
	}
	return nil
}

func (r *FileCheckoutRepo) FindByKey(ctx context.Context, preferenceID string) (*model.PendingCheckout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checkouts[preferenceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *FileCheckoutRepo) Delete(ctx context.Context, preferenceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.checkouts[preferenceID]
	if !ok {
		return nil
	}
	delete(r.checkouts, preferenceID)
	if err := writeFileAtomic(r.path, r.checkouts); err != nil {
		r.checkouts[preferenceID] = prev
		return err
	}
	return nil
}

func (r *FileCheckoutRepo) ListAll(ctx context.Context) ([]*model.PendingCheckout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.PendingCheckout, 0, len(r.checkouts))
	for _, c := range r.checkouts {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}
