package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-be/internal/order"
	"storefront-be/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// paypalAPI answers the token and verify-webhook-signature calls. Only
// deliveries carrying sig are reported as verified.
func paypalAPI(t *testing.T, sig string) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token", "token_type": "Bearer", "expires_in": 3600,
		})
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TransmissionSig string `json:"transmission_sig"`
			WebhookID       string `json:"webhook_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		status := "FAILURE"
		if body.TransmissionSig == sig && body.WebhookID == "WH-CONF-1" {
			status = "SUCCESS"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"verification_status": status})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestHandler_PayPal_SignedDelivery(t *testing.T) {
	verifier, err := payment.NewPayPalWebhookVerifier(payment.PayPalConfig{
		ClientID:  "id",
		Secret:    "secret",
		APIURL:    paypalAPI(t, "sig-1"),
		WebhookID: "WH-CONF-1",
		Timeout:   time.Second,
	}, nil)
	require.NoError(t, err)

	t.Run("Verified capture pays the order", func(t *testing.T) {
		orders, payments := new(MockOrders), new(MockPayments)
		h := NewWebhookHandler(orders, payments, Config{PayPal: verifier})
		payments.On("SaveWebhook", mock.Anything, mock.Anything).Return(int64(7), false, nil)
		orders.On("ApproveProviderOrder", mock.Anything, "o-1", "PP-1").Return(&order.Order{ID: "o-1"}, nil)
		payments.On("MarkWebhookProcessed", mock.Anything, int64(7)).Return(nil)

		w := httptest.NewRecorder()
		h.PayPal(w, paypalRequest("sig-1", captureCompleted()))

		assert.Equal(t, http.StatusOK, w.Code)
		orders.AssertExpectations(t)
	})

	t.Run("Forged capture is refused", func(t *testing.T) {
		orders, payments := new(MockOrders), new(MockPayments)
		h := NewWebhookHandler(orders, payments, Config{PayPal: verifier})

		w := httptest.NewRecorder()
		h.PayPal(w, paypalRequest("forged", captureCompleted()))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		orders.AssertNotCalled(t, "ApproveProviderOrder", mock.Anything, mock.Anything, mock.Anything)
	})
}
