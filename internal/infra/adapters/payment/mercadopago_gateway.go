// File: internal/infra/adapters/payment/mercadopago_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"telegram-group-subscription/internal/config"
	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MercadoPagoGateway)(nil)

const defaultBaseURL = "https://api.mercadopago.com"

// MercadoPagoGateway implements adapter.PaymentGateway against the
// MercadoPago REST API: checkout preferences for session creation,
// /v1/payments and /merchant_orders for authoritative lookups.
type MercadoPagoGateway struct {
	accessToken     string
	notificationURL string
	backURL         string
	sandbox         bool
	baseURL         string
	client          *http.Client
}

func NewMercadoPagoGateway(cfg config.MercadoPagoConfig) (*MercadoPagoGateway, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("mercadopago access token empty")
	}
	return &MercadoPagoGateway{
		accessToken:     cfg.AccessToken,
		notificationURL: cfg.NotificationURL,
		backURL:         cfg.BackURL,
		sandbox:         cfg.Sandbox,
		baseURL:         defaultBaseURL,
		client:          &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// SetBaseURL points the client at a different API host (tests).
func (g *MercadoPagoGateway) SetBaseURL(u string) { g.baseURL = u }

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

// do sends the request with auth headers and retries once on transport
// errors and 5xx responses. Anything still failing afterwards surfaces as
// domain.ErrGatewayUnavailable so callers can tell transient from terminal.
func (g *MercadoPagoGateway) do(ctx context.Context, method, path string, body []byte, out any) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+g.accessToken)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		func() {
			defer resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusNotFound:
				lastErr = domain.ErrNotFound
			case resp.StatusCode >= 500:
				lastErr = fmt.Errorf("mercadopago %s: http %d", path, resp.StatusCode)
			case resp.StatusCode >= 400:
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				lastErr = fmt.Errorf("mercadopago %s: http %d: %s", path, resp.StatusCode, b)
			default:
				lastErr = json.NewDecoder(resp.Body).Decode(out)
			}
		}()
		if lastErr == nil || errors.Is(lastErr, domain.ErrNotFound) {
			return lastErr
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// terminal: the gateway understood and refused
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, lastErr)
}

// CreateCheckout creates a checkout preference and returns its id plus the
// hosted payment URL.
func (g *MercadoPagoGateway) CreateCheckout(ctx context.Context, amountCents int64, title string, meta map[string]string) (adapter.CheckoutSession, error) {
	payload := map[string]any{
		"items": []map[string]any{{
			"title":       title,
			"quantity":    1,
			"currency_id": "BRL",
			"unit_price":  float64(amountCents) / 100,
		}},
		"auto_return": "approved",
	}
	if len(meta) > 0 {
		payload["metadata"] = meta
	}
	if g.notificationURL != "" {
		payload["notification_url"] = g.notificationURL
	}
	if g.backURL != "" {
		payload["back_urls"] = map[string]string{
			"success": g.backURL,
			"failure": g.backURL,
			"pending": g.backURL,
		}
	}
	b, _ := json.Marshal(payload)

	var out struct {
		ID               string `json:"id"`
		InitPoint        string `json:"init_point"`
		SandboxInitPoint string `json:"sandbox_init_point"`
	}
	if err := g.do(ctx, http.MethodPost, "/checkout/preferences", b, &out); err != nil {
		return adapter.CheckoutSession{}, err
	}
	if out.ID == "" {
		return adapter.CheckoutSession{}, fmt.Errorf("%w: preference id missing in response", domain.ErrGatewayUnavailable)
	}
	payURL := out.InitPoint
	if g.sandbox && out.SandboxInitPoint != "" {
		payURL = out.SandboxInitPoint
	}
	return adapter.CheckoutSession{PreferenceID: out.ID, PayURL: payURL}, nil
}

// GetPayment fetches the authoritative payment record. The notification
// body is never trusted for status; this lookup is.
func (g *MercadoPagoGateway) GetPayment(ctx context.Context, paymentID string) (*adapter.PaymentInfo, error) {
	var out struct {
		ID           json.Number `json:"id"`
		Status       string      `json:"status"`
		PreferenceID string      `json:"preference_id"`
		Order        struct {
			ID json.Number `json:"id"`
		} `json:"order"`
	}
	if err := g.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &out); err != nil {
		return nil, err
	}
	return &adapter.PaymentInfo{
		ID:           out.ID.String(),
		Status:       out.Status,
		PreferenceID: out.PreferenceID,
		OrderID:      out.Order.ID.String(),
	}, nil
}

// GetMerchantOrder fetches the order aggregate, which carries the
// preference id and the underlying payment ids.
func (g *MercadoPagoGateway) GetMerchantOrder(ctx context.Context, orderID string) (*adapter.MerchantOrder, error) {
	var out struct {
		ID           json.Number `json:"id"`
		PreferenceID string      `json:"preference_id"`
		Payments     []struct {
			ID json.Number `json:"id"`
		} `json:"payments"`
	}
	if err := g.do(ctx, http.MethodGet, "/merchant_orders/"+orderID, nil, &out); err != nil {
		return nil, err
	}
	mo := &adapter.MerchantOrder{
		ID:           out.ID.String(),
		PreferenceID: out.PreferenceID,
	}
	for _, p := range out.Payments {
		mo.PaymentIDs = append(mo.PaymentIDs, p.ID.String())
	}
	return mo, nil
}
