package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"go.uber.org/zap"
)

type StripeConfig struct {
	SecretKey string
	APIURL    string
	Currency  string
	Timeout   time.Duration
}

type stripeGateway struct {
	client   *stripecl.API
	currency string
	timeout  time.Duration
	metrics  *metrics.Pipeline
}

var hundred = decimal.NewFromInt(100)

func NewStripeGateway(cfg StripeConfig, m *metrics.Pipeline) Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}

	bc := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		bc.URL = stripe.String(cfg.APIURL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, bc)

	strp := &stripecl.API{}
	strp.Init(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	return &stripeGateway{client: strp, currency: strings.ToLower(cfg.Currency), timeout: cfg.Timeout, metrics: m}
}

func (g *stripeGateway) Provider() string { return ProviderStripe }

// CreateOrder opens a manually captured PaymentIntent for the order total.
func (g *stripeGateway) CreateOrder(ctx context.Context, req CreateRequest) (*RemoteOrder, error) {
	log := logger.Op(ctx, "gateway", "stripe.CreateOrder", zap.String("order_id", req.OrderID))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount.Mul(hundred).Round(0).IntPart()),
		Currency:      stripe.String(g.currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	params.Context = ctx
	params.AddMetadata("orderId", req.OrderID)

	timer := metrics.StartTimer()
	pi, err := g.client.PaymentIntents.New(params)
	g.metrics.ProviderCall(ProviderStripe, "create", timer.Duration())
	if err != nil {
		log.Error("stripe create payment intent failed", zap.Error(err))
		return nil, classify(err, stripeStatus(err))
	}

	log.Info("stripe payment intent created", zap.String("provider_order_id", pi.ID))
	return &RemoteOrder{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// CaptureOrder captures an authorised intent. An intent that already
// succeeded is reported as is so repeated captures stay harmless.
func (g *stripeGateway) CaptureOrder(ctx context.Context, providerOrderID string) (*Capture, error) {
	log := logger.Op(ctx, "gateway", "stripe.CaptureOrder", zap.String("provider_order_id", providerOrderID))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	timer := metrics.StartTimer()
	defer func() { g.metrics.ProviderCall(ProviderStripe, "capture", timer.Duration()) }()

	getParams := &stripe.PaymentIntentParams{}
	getParams.Context = ctx

	pi, err := g.client.PaymentIntents.Get(providerOrderID, getParams)
	if err != nil {
		log.Error("stripe get payment intent failed", zap.Error(err))
		return nil, classify(err, stripeStatus(err))
	}

	if pi.Status == stripe.PaymentIntentStatusRequiresCapture {
		capParams := &stripe.PaymentIntentCaptureParams{}
		capParams.Context = ctx

		pi, err = g.client.PaymentIntents.Capture(providerOrderID, capParams)
		if err != nil {
			log.Error("stripe capture failed", zap.Error(err))
			return nil, classify(err, stripeStatus(err))
		}
	}

	c := &Capture{
		ID:         pi.ID,
		Status:     stripeCaptureStatus(pi.Status),
		PayerEmail: pi.ReceiptEmail,
		Amount:     decimal.NewFromInt(pi.AmountReceived).Div(hundred).Round(2),
	}

	log.Info("stripe capture answered", zap.String("status", string(pi.Status)))
	return c, nil
}

// stripeCaptureStatus maps intent states onto the PayPal-style capture
// status the orchestrator checks.
func stripeCaptureStatus(s stripe.PaymentIntentStatus) string {
	if s == stripe.PaymentIntentStatusSucceeded {
		return StatusCompleted
	}
	return strings.ToUpper(string(s))
}

func stripeStatus(err error) int {
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode
	}
	return 0
}
