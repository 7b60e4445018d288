// File: internal/infra/store/subscriber_repo.go
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

var _ repository.SubscriberRepository = (*FileSubscriberRepo)(nil)

// FileSubscriberRepo keeps the Subscribers table in memory behind a
// table-wide mutex and rewrites subscribers.json atomically on every
// mutation. The coarse lock is what makes per-subscriber read-modify-write
// linearizable; external calls never happen while it is held.
type FileSubscriberRepo struct {
	mu   sync.RWMutex
	path string
	subs map[string]*model.Subscriber
}

func NewFileSubscriberRepo(dir string) (*FileSubscriberRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	r := &FileSubscriberRepo{
		path: filepath.Join(dir, "subscribers.json"),
		subs: make(map[string]*model.Subscriber),
	}
	if err := loadFile(r.path, &r.subs); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileSubscriberRepo) FindByID(ctx context.Context, id string) (*model.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *FileSubscriberRepo) ListAll(ctx context.Context) ([]*model.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (r *FileSubscriberRepo) ListByStatus(ctx context.Context, status model.SubscriberStatus) ([]*model.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Subscriber
	for _, s := range r.subs {
		if s.Status == status {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *FileSubscriberRepo) Upsert(ctx context.Context, id string, mutate func(existing *model.Subscriber) (*model.Subscriber, error)) (*model.Subscriber, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing *model.Subscriber
	if cur, ok := r.subs[id]; ok {
		cp := *cur
		existing = &cp
	}
	next, err := mutate(existing)
	if err != nil {
		return nil, err
	}
	next.ID = id
	if err := r.flushWith(id, next); err != nil {
		return nil, err
	}
	cp := *next
	return &cp, nil
}

func (r *FileSubscriberRepo) Update(ctx context.Context, id string, mutate func(s *model.Subscriber) error) (*model.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *cur
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	cp.ID = id
	if err := r.flushWith(id, &cp); err != nil {
		return nil, err
	}
	out := cp
	return &out, nil
}

func (r *FileSubscriberRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.subs[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.subs, id)
	if err := writeFileAtomic(r.path, r.subs); err != nil {
		r.subs[id] = prev
		return err
	}
	return nil
}

// flushWith stores the record in the map only if the disk write succeeds,
// so memory never runs ahead of durable state.
func (r *FileSubscriberRepo) flushWith(id string, s *model.Subscriber) error {
	prev, had := r.subs[id]
	r.subs[id] = s
	if err := writeFileAtomic(r.path, r.subs); err != nil {
		if had {
			r.subs[id] = prev
		} else {
			delete(r.subs, id)
		}
		return err
	}
	return nil
}
