// File: internal/infra/adapters/payment/noop_payment.go
package payment

import (
	"context"
	"fmt"
	"sync"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway for dev mode and tests.
// Sessions it creates can be approved by calling ApprovePayment.
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	payments map[string]*adapter.PaymentInfo
	orders   map[string]*adapter.MerchantOrder
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{
		payments: make(map[string]*adapter.PaymentInfo),
		orders:   make(map[string]*adapter.MerchantOrder),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s-%d", prefix, g.seq)
}

func (g *NoopPaymentGateway) CreateCheckout(ctx context.Context, amountCents int64, title string, meta map[string]string) (adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pref := g.next("pref")
	return adapter.CheckoutSession{
		PreferenceID: pref,
		PayURL:       "https://example.test/pay/" + pref,
	}, nil
}

// ApprovePayment registers an approved payment for the given preference
// and returns its id, simulating a completed checkout.
func (g *NoopPaymentGateway) ApprovePayment(preferenceID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next("pay")
	g.payments[id] = &adapter.PaymentInfo{
		ID:           id,
		Status:       "approved",
		PreferenceID: preferenceID,
	}
	return id
}

func (g *NoopPaymentGateway) GetPayment(ctx context.Context, paymentID string) (*adapter.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (g *NoopPaymentGateway) GetMerchantOrder(ctx context.Context, orderID string) (*adapter.MerchantOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}
