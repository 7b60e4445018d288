package adapter

import "context"

// CheckoutSession is the gateway-hosted checkout created for one plan
// purchase. PreferenceID is the correlation key later notifications map
// back to; PayURL is where the subscriber completes the payment.
type CheckoutSession struct {
	PreferenceID string
	PayURL       string
}

// PaymentInfo is the authoritative state of a payment fetched from the
// gateway. PreferenceID may be empty; OrderID then allows deriving the
// correlation key through a merchant-order lookup.
type PaymentInfo struct {
	ID           string
	Status       string // e.g. "approved", "pending", "rejected"
	PreferenceID string
	OrderID      string
}

// Approved reports whether the payment has been approved by the gateway.
func (p *PaymentInfo) Approved() bool { return p != nil && p.Status == "approved" }

// MerchantOrder aggregates the payments made against one checkout.
type MerchantOrder struct {
	ID           string
	PreferenceID string
	PaymentIDs   []string
}

// PaymentGateway is the hex port for the payment provider.
// Implementations must bound every call with a timeout and at most one
// retry; a failing call surfaces domain.ErrGatewayUnavailable.
type PaymentGateway interface {
	Name() string

	// CreateCheckout creates a hosted checkout session for the given price.
	CreateCheckout(ctx context.Context, amountCents int64, title string, meta map[string]string) (CheckoutSession, error)
	// GetPayment fetches the authoritative payment record by id.
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
	// GetMerchantOrder fetches the order aggregate by id.
	GetMerchantOrder(ctx context.Context, orderID string) (*MerchantOrder, error)
}
