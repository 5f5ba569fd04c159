package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront-be/internal/apperr"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"github.com/plutov/paypal/v4"
	"go.uber.org/zap"
)

const paypalVerified = "SUCCESS"

var ErrWebhookSignature = apperr.New(apperr.KindUnauthorized, apperr.CodeUnauthorized, "Webhook signature is not valid")

// PayPalWebhookVerifier checks a delivery's PAYPAL-TRANSMISSION-* headers
// through PayPal's verify-webhook-signature API.
type PayPalWebhookVerifier struct {
	client    *paypal.Client
	auth      *paypalAuth
	webhookID string
	timeout   time.Duration
	metrics   *metrics.Pipeline
}

func NewPayPalWebhookVerifier(cfg PayPalConfig, m *metrics.Pipeline) (*PayPalWebhookVerifier, error) {
	if cfg.WebhookID == "" {
		return nil, errors.New("paypal webhook id is not set")
	}

	client, err := newPayPalClient(&cfg)
	if err != nil {
		return nil, err
	}

	return &PayPalWebhookVerifier{
		client:    client,
		auth:      &paypalAuth{client: client},
		webhookID: cfg.WebhookID,
		timeout:   cfg.Timeout,
		metrics:   m,
	}, nil
}

// VerifyWebhook returns ErrWebhookSignature when PayPal does not vouch for
// the delivery. r.Body must still hold the raw event; it is restored after
// reading.
func (v *PayPalWebhookVerifier) VerifyWebhook(ctx context.Context, r *http.Request) error {
	log := logger.Op(ctx, "gateway", "paypal.VerifyWebhook",
		zap.String("transmission_id", r.Header.Get("PAYPAL-TRANSMISSION-ID")),
	)

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if err := v.auth.ensure(ctx); err != nil {
		log.Error("paypal access token failed", zap.Error(err))
		return err
	}

	timer := metrics.StartTimer()
	resp, err := v.client.VerifyWebhookSignature(ctx, r, v.webhookID)
	v.metrics.ProviderCall(ProviderPayPal, "verify", timer.Duration())
	if err != nil {
		log.Error("paypal webhook verification failed", zap.Error(err))
		return classify(err, paypalStatus(err))
	}

	if resp.VerificationStatus != paypalVerified {
		log.Warn("paypal webhook signature rejected", zap.String("status", resp.VerificationStatus))
		return ErrWebhookSignature
	}
	return nil
}
