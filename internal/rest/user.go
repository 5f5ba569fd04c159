package rest

import (
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/middleware"
	"storefront-be/internal/result"
	"storefront-be/internal/user"
)

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var in user.SignInInput
	if err := decodeJSON(w, r, &in); err != nil {
		result.WriteError(w, r, err)
		return
	}

	res, err := h.users.SignIn(r.Context(), in, middleware.ActorFrom(r).SessionCartID)
	if err != nil {
		result.WriteError(w, r, err)
		return
	}

	h.setAccessToken(w, res.Token)
	result.Write(w, http.StatusOK, result.OK("Signed in successfully", res))
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in user.SignUpInput
	if err := decodeJSON(w, r, &in); err != nil {
		result.WriteError(w, r, err)
		return
	}

	res, err := h.users.SignUp(r.Context(), in, middleware.ActorFrom(r).SessionCartID)
	if err != nil {
		result.WriteError(w, r, err)
		return
	}

	h.setAccessToken(w, res.Token)
	result.Write(w, http.StatusCreated, result.OK("User created successfully", res))
}

// SignOut drops the session cart and both cookies; the next request gets
// a fresh cart token.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.users.SignOut(r.Context(), middleware.ActorFrom(r).SessionCartID); err != nil {
		result.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: auth.AccessTokenCookie, Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: auth.SessionCartCookie, Path: "/", MaxAge: -1})
	result.Write(w, http.StatusOK, result.Done("Signed out"))
}

func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var addr user.ShippingAddress
	if err := decodeJSON(w, r, &addr); err != nil {
		result.WriteError(w, r, err)
		return
	}

	if err := h.users.UpdateAddress(r.Context(), middleware.ActorFrom(r), addr); err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, result.Done("User updated successfully"))
}

func (h *Handler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type user.PaymentMethod `json:"type"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		result.WriteError(w, r, err)
		return
	}

	if err := h.users.UpdatePaymentMethod(r.Context(), middleware.ActorFrom(r), body.Type); err != nil {
		result.WriteError(w, r, err)
		return
	}
	result.Write(w, http.StatusOK, result.Done("User updated successfully"))
}

func (h *Handler) setAccessToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.issuer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
