package rest

import (
	"net/http"

	"storefront-be/internal/middleware"
	"storefront-be/internal/result"
	"storefront-be/internal/validate"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.CreateOrder(r.Context(), middleware.ActorFrom(r))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusCreated, result.OK("Order created", o))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrderByID(r.Context(), middleware.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, o)
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListMyOrders(r.Context(), middleware.ActorFrom(r), pageFrom(r))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, list)
}

// PayOrder opens the provider order the client approves against.
func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	if _, err := h.orders.GetOrderByID(r.Context(), middleware.ActorFrom(r), chi.URLParam(r, "id")); err != nil {
		result.WriteError(w, r, err)
		return
	}

	po, err := h.orders.CreateProviderOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, result.OK("Payment order created", po))
}

// CaptureOrder confirms the approved provider order.
func (h *Handler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProviderOrderID string `json:"providerOrderId"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		result.WriteError(w, r, err)
		return
	}
	if body.ProviderOrderID == "" {
		result.WriteError(w, r, validate.ErrInvalid)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.orders.GetOrderByID(r.Context(), middleware.ActorFrom(r), id); err != nil {
		result.WriteError(w, r, err)
		return
	}

	o, err := h.orders.ApproveProviderOrder(r.Context(), id, body.ProviderOrderID)
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, result.OK("Your order has been paid", o))
}

func (h *Handler) MarkPaidCOD(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.UpdateOrderToPaidCOD(r.Context(), middleware.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, result.OK("Order marked as paid", o))
}

func (h *Handler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.DeliverOrder(r.Context(), middleware.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, result.OK("Order has been marked as delivered", o))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListOrders(r.Context(), middleware.ActorFrom(r), pageFrom(r))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, list)
}

func (h *Handler) OrderSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.orders.GetOrderSummary(r.Context(), middleware.ActorFrom(r))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, s)
}
