package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func signed(t *testing.T, issuer *auth.Issuer, userID, role string) string {
	t.Helper()
	token, err := issuer.Sign(auth.Claims{UserID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func TestAuth(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)

	t.Run("Missing token is anonymous with a minted cart token", func(t *testing.T) {
		var got auth.Actor
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = ActorFrom(r)
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		w := httptest.NewRecorder()
		Auth(issuer, false)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, got.Authenticated())
		assert.NotEmpty(t, got.SessionCartID)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.SessionCartCookie, cookies[0].Name)
		assert.Equal(t, got.SessionCartID, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("Supplied cart token is kept", func(t *testing.T) {
		var got auth.Actor
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { got = ActorFrom(r) })

		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCartCookie, Value: "sess-1"})
		w := httptest.NewRecorder()
		Auth(issuer, false)(next).ServeHTTP(w, req)

		assert.Equal(t, "sess-1", got.SessionCartID)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("Valid bearer token", func(t *testing.T) {
		var got auth.Actor
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { got = ActorFrom(r) })

		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signed(t, issuer, "u-1", "admin"))
		req.Header.Set(auth.SessionCartIDHeader, "sess-2")
		w := httptest.NewRecorder()
		Auth(issuer, false)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u-1", got.UserID)
		assert.True(t, got.IsAdmin())
		assert.Equal(t, "sess-2", got.SessionCartID)
	})

	t.Run("Invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		Auth(issuer, false)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("Token from another secret", func(t *testing.T) {
		other := auth.NewIssuer("other-secret", time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: signed(t, other, "u-1", "user")})
		w := httptest.NewRecorder()

		Auth(issuer, false)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed header", func(t *testing.T) {
		var got auth.Actor
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = ActorFrom(r)
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		req.Header.Set("Authorization", "Basic user:pass")
		w := httptest.NewRecorder()
		Auth(issuer, false)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, got.Authenticated())
	})

	t.Run("Signed in lines carry user id", func(t *testing.T) {
		core, observed := observer.New(zapcore.InfoLevel)
		defer logger.Replace(zap.New(core))()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.FromCtx(r.Context()).Info("handled")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signed(t, issuer, "u-7", "user"))
		Auth(issuer, false)(next).ServeHTTP(httptest.NewRecorder(), req)

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		assert.Equal(t, "u-7", logs[0].ContextMap()["user_id"])
	})
}
