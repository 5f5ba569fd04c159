package rest

import (
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/middleware"
	"storefront-be/internal/result"

	"github.com/go-chi/chi/v5"
)

// GetCart answers with the caller's cart, or null when none exists yet.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.GetCart(r.Context(), middleware.ActorFrom(r))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, c)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in cart.AddItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		result.WriteError(w, r, err)
		return
	}

	m, err := h.carts.AddItem(r.Context(), middleware.ActorFrom(r), in)
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, result.OK(m.Message, m.Cart))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	m, err := h.carts.RemoveItem(r.Context(), middleware.ActorFrom(r), chi.URLParam(r, "productId"))
	if err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, result.OK(m.Message, m.Cart))
}
