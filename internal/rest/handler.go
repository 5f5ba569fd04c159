package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/order"
	"storefront-be/internal/user"
	"storefront-be/internal/validate"
)

const maxBodyBytes = 1 << 20

// Handler adapts the domain services to HTTP. Every mutation answers with
// the uniform result shape; reads answer with the data itself.
type Handler struct {
	carts         cart.Service
	users         user.Service
	orders        order.Service
	issuer        *auth.Issuer
	secureCookies bool
}

func NewHandler(carts cart.Service, users user.Service, orders order.Service, issuer *auth.Issuer, secureCookies bool) *Handler {
	return &Handler{carts: carts, users: users, orders: orders, issuer: issuer, secureCookies: secureCookies}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return validate.ErrInvalid.Wrap(errors.New("empty request body"))
		}
		return validate.ErrInvalid.Wrap(err)
	}
	return nil
}

func pageFrom(r *http.Request) order.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return order.Page{Page: page, Limit: limit}
}
