package webhook

import (
	"encoding/json"
	"net/http"

	"storefront-be/internal/logger"
	"storefront-be/internal/payment"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/zap"
)

const stripePaymentSucceeded = "payment_intent.succeeded"

// Stripe handles signed Stripe events. payment_intent.succeeded pays the
// order named in the intent's orderId metadata.
func (h *Handler) Stripe(w http.ResponseWriter, r *http.Request) {
	log := logger.Op(r.Context(), "webhook", "Stripe")

	body, err := readBody(w, r)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEventWithOptions(body, r.Header.Get("Stripe-Signature"), h.cfg.StripeSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Warn("invalid stripe signature", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	ev := payment.WebhookEvent{
		Provider:       payment.ProviderStripe,
		EventID:        event.ID,
		EventType:      string(event.Type),
		Payload:        json.RawMessage(body),
		SignatureValid: true,
	}

	var c *capture
	if string(event.Type) == stripePaymentSucceeded {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			http.Error(w, "invalid payment intent", http.StatusBadRequest)
			return
		}
		orderID := pi.Metadata["orderId"]
		if orderID == "" {
			http.Error(w, "payment intent has no order", http.StatusBadRequest)
			return
		}
		ev.ExternalID = orderID
		c = &capture{OrderID: orderID, ProviderOrderID: pi.ID}
	}

	h.process(w, r, ev, c)
}
