package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	AccessTokenCookie   = "access_token"
	SessionCartCookie   = "sessionCartId"
	SessionCartIDHeader = "X-Session-Cart-Id"
)

func ExtractAccessToken(r *http.Request) string {
	// Cookie first, header as fallback
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// ExtractSessionCartID returns the anonymous cart token and whether it was
// supplied by the client. A fresh uuid is minted when it was not.
func ExtractSessionCartID(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(SessionCartCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	if v := strings.TrimSpace(r.Header.Get(SessionCartIDHeader)); v != "" {
		return v, true
	}

	return uuid.NewString(), false
}
