package webhook

import (
	"context"
	"io"
	"net/http"

	"storefront-be/internal/apperr"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"

	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// OrderPayer confirms a captured provider order against the stored order.
type OrderPayer interface {
	ApproveProviderOrder(ctx context.Context, orderID, providerOrderID string) (*order.Order, error)
}

// Verifier authenticates a provider delivery whose signature can only be
// checked by the provider itself.
type Verifier interface {
	VerifyWebhook(ctx context.Context, r *http.Request) error
}

type Config struct {
	StripeSecret string
	// PayPal is nil when PayPal webhooks are not configured; every
	// delivery is then refused.
	PayPal Verifier
}

type Handler struct {
	orders   OrderPayer
	payments payment.Repository
	cfg      Config
}

func NewWebhookHandler(orders OrderPayer, payments payment.Repository, cfg Config) *Handler {
	return &Handler{orders: orders, payments: payments, cfg: cfg}
}

// capture is the part of a provider event that can pay an order.
type capture struct {
	OrderID         string
	ProviderOrderID string
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// process records the event and, for a capture, pays the order. Delivery
// is at least once: an event already processed is acknowledged without
// touching the order and AlreadyPaid counts as success.
func (h *Handler) process(w http.ResponseWriter, r *http.Request, ev payment.WebhookEvent, c *capture) {
	ctx := r.Context()
	log := logger.Op(ctx, "webhook", "process",
		zap.String("provider", ev.Provider),
		zap.String("event_id", ev.EventID),
		zap.String("event_type", ev.EventType),
	)

	webhookID, duplicate, err := h.payments.SaveWebhook(ctx, ev)
	if err != nil {
		http.Error(w, "failed to record webhook", http.StatusInternalServerError)
		return
	}
	if duplicate {
		log.Info("duplicate webhook ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	if c != nil {
		_, err = h.orders.ApproveProviderOrder(ctx, c.OrderID, c.ProviderOrderID)
		if err != nil && !order.IsAlreadyPaid(err) {
			log.Warn("webhook processing failed", zap.String("order_id", c.OrderID), zap.Error(err))
			if mErr := h.payments.MarkWebhookFailed(ctx, webhookID, err.Error()); mErr != nil {
				log.Error("failed to mark webhook failed", zap.Error(mErr))
			}
			http.Error(w, "failed to process webhook", failureStatus(err))
			return
		}
	}

	if err := h.payments.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook processed", zap.Error(err))
	}

	log.Info("webhook processed")
	w.WriteHeader(http.StatusOK)
}

// failureStatus asks the provider to redeliver only when a later attempt
// can succeed.
func failureStatus(err error) int {
	ae := apperr.As(err)
	if ae == nil || ae.Retryable {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
