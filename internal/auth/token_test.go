package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAccessToken(t *testing.T) {
	t.Run("Cookie Preferred", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie_token"})
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "cookie_token", ExtractAccessToken(req))
	})

	t.Run("Header Fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "header_token", ExtractAccessToken(req))
	})

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")

		assert.Equal(t, "", ExtractAccessToken(req))
	})
}

func TestExtractSessionCartID(t *testing.T) {
	t.Run("Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCartCookie, Value: "sess-1"})
		req.Header.Set(SessionCartIDHeader, "sess-2")

		id, supplied := ExtractSessionCartID(req)
		assert.Equal(t, "sess-1", id)
		assert.True(t, supplied)
	})

	t.Run("Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionCartIDHeader, "sess-2")

		id, supplied := ExtractSessionCartID(req)
		assert.Equal(t, "sess-2", id)
		assert.True(t, supplied)
	})

	t.Run("Minted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		id, supplied := ExtractSessionCartID(req)
		assert.Len(t, id, 36)
		assert.False(t, supplied)
	})
}
