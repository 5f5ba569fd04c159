package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront-be/internal/logger"
	"storefront-be/internal/payment"

	"go.uber.org/zap"
)

const paypalCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"

type paypalEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		CustomID          string `json:"custom_id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// PayPal handles PayPal events after PayPal has verified the transmission
// signature. PAYMENT.CAPTURE.COMPLETED pays the order carried in custom_id.
func (h *Handler) PayPal(w http.ResponseWriter, r *http.Request) {
	log := logger.Op(r.Context(), "webhook", "PayPal")

	if h.cfg.PayPal == nil {
		log.Warn("paypal webhook received but verification is not configured")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	if err := h.cfg.PayPal.VerifyWebhook(r.Context(), r); err != nil {
		if errors.Is(err, payment.ErrWebhookSignature) || errors.Is(err, payment.ErrRejected) {
			log.Warn("invalid paypal webhook signature", zap.Error(err))
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		log.Error("paypal webhook could not be verified", zap.Error(err))
		http.Error(w, "failed to verify webhook", http.StatusInternalServerError)
		return
	}

	var payload paypalEvent
	if err := json.Unmarshal(body, &payload); err != nil || payload.ID == "" {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	ev := payment.WebhookEvent{
		Provider:       payment.ProviderPayPal,
		EventID:        payload.ID,
		EventType:      payload.EventType,
		ExternalID:     payload.Resource.CustomID,
		Payload:        json.RawMessage(body),
		SignatureValid: true,
	}

	var c *capture
	if payload.EventType == paypalCaptureCompleted {
		providerOrderID := payload.Resource.SupplementaryData.RelatedIDs.OrderID
		if payload.Resource.CustomID == "" || providerOrderID == "" {
			http.Error(w, "capture has no order", http.StatusBadRequest)
			return
		}
		c = &capture{OrderID: payload.Resource.CustomID, ProviderOrderID: providerOrderID}
	}

	h.process(w, r, ev, c)
}
