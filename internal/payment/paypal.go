package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/money"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PayPalConfig struct {
	ClientID  string
	Secret    string
	APIURL    string
	Currency  string
	WebhookID string
	Timeout   time.Duration
}

func newPayPalClient(cfg *PayPalConfig) (*paypal.Client, error) {
	client, err := paypal.NewClient(cfg.ClientID, cfg.Secret, cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build the paypal client: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	client.Client = &http.Client{Timeout: cfg.Timeout}

	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return client, nil
}

// paypalAuth fetches the first access token. Afterwards the client renews
// it on its own shortly before expiry.
type paypalAuth struct {
	mu     sync.Mutex
	client *paypal.Client
	ready  bool
}

func (a *paypalAuth) ensure(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ready {
		return nil
	}
	if _, err := a.client.GetAccessToken(ctx); err != nil {
		return classify(err, paypalStatus(err))
	}
	a.ready = true
	return nil
}

type paypalGateway struct {
	client   *paypal.Client
	auth     *paypalAuth
	currency string
	timeout  time.Duration
	metrics  *metrics.Pipeline
}

func NewPayPalGateway(cfg PayPalConfig, m *metrics.Pipeline) (Gateway, error) {
	client, err := newPayPalClient(&cfg)
	if err != nil {
		return nil, err
	}

	return &paypalGateway{
		client:   client,
		auth:     &paypalAuth{client: client},
		currency: cfg.Currency,
		timeout:  cfg.Timeout,
		metrics:  m,
	}, nil
}

func (g *paypalGateway) Provider() string { return ProviderPayPal }

func (g *paypalGateway) CreateOrder(ctx context.Context, req CreateRequest) (*RemoteOrder, error) {
	log := logger.Op(ctx, "gateway", "paypal.CreateOrder", zap.String("order_id", req.OrderID))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.auth.ensure(ctx); err != nil {
		log.Error("paypal access token failed", zap.Error(err))
		return nil, err
	}

	value := money.Fixed(req.Amount)
	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: req.OrderID,
		CustomID:    req.OrderID,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: g.currency,
			Value:    value,
		},
	}}

	timer := metrics.StartTimer()
	ord, err := g.client.CreateOrder(ctx, "CAPTURE", units, nil, &paypal.ApplicationContext{})
	g.metrics.ProviderCall(ProviderPayPal, "create", timer.Duration())
	if err != nil {
		log.Error("paypal create order failed", zap.Error(err))
		return nil, classify(err, paypalStatus(err))
	}

	log.Info("paypal order created", zap.String("provider_order_id", ord.ID), zap.String("amount", value))
	return &RemoteOrder{ID: ord.ID}, nil
}

func (g *paypalGateway) CaptureOrder(ctx context.Context, providerOrderID string) (*Capture, error) {
	log := logger.Op(ctx, "gateway", "paypal.CaptureOrder", zap.String("provider_order_id", providerOrderID))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.auth.ensure(ctx); err != nil {
		log.Error("paypal access token failed", zap.Error(err))
		return nil, err
	}

	timer := metrics.StartTimer()
	resp, err := g.client.CaptureOrder(ctx, providerOrderID, paypal.CaptureOrderRequest{})
	g.metrics.ProviderCall(ProviderPayPal, "capture", timer.Duration())
	if err != nil && alreadyCaptured(err) {
		log.Info("paypal order already captured, reading it back")
		return g.getOrder(ctx, providerOrderID)
	}
	if err != nil {
		log.Error("paypal capture failed", zap.Error(err))
		return nil, classify(err, paypalStatus(err))
	}
	if resp == nil {
		return nil, nil
	}

	c := &Capture{ID: resp.ID, Status: resp.Status, Amount: decimal.Zero}
	if resp.Payer != nil {
		c.PayerEmail = resp.Payer.EmailAddress
	}
	if len(resp.PurchaseUnits) > 0 && resp.PurchaseUnits[0].Payments != nil {
		captures := resp.PurchaseUnits[0].Payments.Captures
		if len(captures) > 0 && captures[0].Amount != nil {
			if amt, err := money.Round2(captures[0].Amount.Value); err == nil {
				c.Amount = amt
			}
		}
	}

	log.Info("paypal capture answered", zap.String("status", c.Status))
	return c, nil
}

// getOrder reads a remote order that a previous capture already settled.
func (g *paypalGateway) getOrder(ctx context.Context, providerOrderID string) (*Capture, error) {
	timer := metrics.StartTimer()
	ord, err := g.client.GetOrder(ctx, providerOrderID)
	g.metrics.ProviderCall(ProviderPayPal, "get", timer.Duration())
	if err != nil {
		return nil, classify(err, paypalStatus(err))
	}

	c := &Capture{ID: ord.ID, Status: ord.Status, Amount: decimal.Zero}
	if ord.Payer != nil {
		c.PayerEmail = ord.Payer.EmailAddress
	}
	if len(ord.PurchaseUnits) > 0 && ord.PurchaseUnits[0].Payments != nil {
		captures := ord.PurchaseUnits[0].Payments.Captures
		if len(captures) > 0 && captures[0].Amount != nil {
			if amt, err := money.Round2(captures[0].Amount.Value); err == nil {
				c.Amount = amt
			}
		}
	}
	return c, nil
}

func alreadyCaptured(err error) bool {
	var er *paypal.ErrorResponse
	if !errors.As(err, &er) {
		return false
	}
	for _, d := range er.Details {
		if d.Issue == "ORDER_ALREADY_CAPTURED" {
			return true
		}
	}
	return false
}

func paypalStatus(err error) int {
	var er *paypal.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}
