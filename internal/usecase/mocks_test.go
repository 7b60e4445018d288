// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memSubscriberRepo is a small in-memory implementation used by unit tests.
type memSubscriberRepo struct {
	mu       sync.Mutex
	store    map[string]*model.Subscriber
	writeErr error // simulate a failing durable write
}

func newMemSubscriberRepo() *memSubscriberRepo {
	return &memSubscriberRepo{store: make(map[string]*model.Subscriber)}
}

func (m *memSubscriberRepo) FindByID(ctx context.Context, id string) (*model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubscriberRepo) ListAll(ctx context.Context) ([]*model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Subscriber, 0, len(m.store))
	for _, s := range m.store {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memSubscriberRepo) ListByStatus(ctx context.Context, status model.SubscriberStatus) ([]*model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscriber
	for _, s := range m.store {
		if s.Status == status {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubscriberRepo) Upsert(ctx context.Context, id string, mutate func(existing *model.Subscriber) (*model.Subscriber, error)) (*model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var existing *model.Subscriber
	if cur, ok := m.store[id]; ok {
		cp := *cur
		existing = &cp
	}
	next, err := mutate(existing)
	if err != nil {
		return nil, err
	}
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	next.ID = id
	m.store[id] = next
	cp := *next
	return &cp, nil
}

func (m *memSubscriberRepo) Update(ctx context.Context, id string, mutate func(s *model.Subscriber) error) (*model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *cur
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.store[id] = &cp
	out := cp
	return &out, nil
}

func (m *memSubscriberRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// memCheckoutRepo mirrors the file-backed checkout repo semantics in memory.
type memCheckoutRepo struct {
	mu      sync.Mutex
	store   map[string]*model.PendingCheckout
	saveErr error
}

func newMemCheckoutRepo() *memCheckoutRepo {
	return &memCheckoutRepo{store: make(map[string]*model.PendingCheckout)}
}

func (m *memCheckoutRepo) Save(ctx context.Context, c *model.PendingCheckout) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.PreferenceID] = &cp
	return nil
}

func (m *memCheckoutRepo) FindByKey(ctx context.Context, preferenceID string) (*model.PendingCheckout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[preferenceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCheckoutRepo) Delete(ctx context.Context, preferenceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, preferenceID)
	return nil
}

func (m *memCheckoutRepo) ListAll(ctx context.Context) ([]*model.PendingCheckout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.PendingCheckout, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// memPlanRepo serves a fixed plan set.
type memPlanRepo struct {
	plans map[string]*model.Plan
}

func newMemPlanRepo(plans ...*model.Plan) *memPlanRepo {
	m := &memPlanRepo{plans: make(map[string]*model.Plan)}
	for _, p := range plans {
		m.plans[p.ID] = p
	}
	return m
}

func (m *memPlanRepo) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) List(ctx context.Context) ([]*model.Plan, error) {
	out := make([]*model.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// mockAccess counts grant/revoke calls and can be scripted to fail.
type mockAccess struct {
	mu        sync.Mutex
	grants    []string
	revokes   []string
	grantErr  error
	revokeErr error
}

func (m *mockAccess) Grant(ctx context.Context, subscriberID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grantErr != nil {
		return m.grantErr
	}
	m.grants = append(m.grants, subscriberID)
	return nil
}

func (m *mockAccess) Revoke(ctx context.Context, subscriberID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revokeErr != nil {
		return m.revokeErr
	}
	m.revokes = append(m.revokes, subscriberID)
	return nil
}

func (m *mockAccess) grantCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.grants)
}

func (m *mockAccess) revokeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.revokes)
}

// mockNotifier records outbound messages.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) SendMessage(ctx context.Context, subscriberID string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, subscriberID+": "+text)
	return nil
}

func (m *mockNotifier) SendButtons(ctx context.Context, subscriberID string, text string, rows [][]adapter.InlineButton) error {
	return m.SendMessage(ctx, subscriberID, text)
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// fakeGateway is a scriptable payment gateway: tests register payments and
// merchant orders directly.
type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	createErr error
	payments  map[string]*adapter.PaymentInfo
	orders    map[string]*adapter.MerchantOrder
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		payments: make(map[string]*adapter.PaymentInfo),
		orders:   make(map[string]*adapter.MerchantOrder),
	}
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateCheckout(ctx context.Context, amountCents int64, title string, meta map[string]string) (adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return adapter.CheckoutSession{}, g.createErr
	}
	g.seq++
	pref := fmt.Sprintf("pref-%d", g.seq)
	return adapter.CheckoutSession{PreferenceID: pref, PayURL: "https://pay.test/" + pref}, nil
}

func (g *fakeGateway) GetPayment(ctx context.Context, paymentID string) (*adapter.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (g *fakeGateway) GetMerchantOrder(ctx context.Context, orderID string) (*adapter.MerchantOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (g *fakeGateway) addPayment(p *adapter.PaymentInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

func (g *fakeGateway) addOrder(o *adapter.MerchantOrder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[o.ID] = o
}

// memProcessedCache is an in-memory stand-in for the redis dedup cache.
type memProcessedCache struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemProcessedCache() *memProcessedCache {
	return &memProcessedCache{seen: make(map[string]bool)}
}

func (c *memProcessedCache) Seen(ctx context.Context, paymentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[paymentID]
}

func (c *memProcessedCache) Mark(ctx context.Context, paymentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[paymentID] = true
}
