package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog/questlog/internal/models"
	"github.com/questlog/questlog/internal/repository/postgres"
	"github.com/questlog/questlog/internal/service/auth/tokenmanager"
)

// Cookie handling never touches the database, an unconnected service will do
func cookieService(t *testing.T, secure bool) *AuthService {
	t.Helper()

	storage := postgres.NewStorage(nil)
	tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret-key"}, storage)
	require.NoError(t, err)

	service, err := NewService(Config{CookieSecure: secure}, tm, storage)
	require.NoError(t, err)
	return service
}

func Test_RefreshCookie(t *testing.T) {
	t.Parallel()

	refresh := models.IssuedToken{
		Value:     "refresh-token-value",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}

	t.Run("set cookie contract", func(t *testing.T) {
		service := cookieService(t, true)
		w := httptest.NewRecorder()

		service.SetRefreshCookie(w, refresh)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)

		cookie := cookies[0]
		assert.Equal(t, RefreshCookieName, cookie.Name)
		assert.Equal(t, "refresh-token-value", cookie.Value)
		assert.Equal(t, "/api/auth", cookie.Path, "cookie must not travel outside the auth endpoints")
		assert.True(t, cookie.HttpOnly, "scripts must not read the refresh token")
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		assert.InDelta(t, 7*24*time.Hour/time.Second, cookie.MaxAge, 5, "Max-Age should track token expiry")
	})

	t.Run("secure flag follows config", func(t *testing.T) {
		service := cookieService(t, false)
		w := httptest.NewRecorder()

		service.SetRefreshCookie(w, refresh)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.False(t, cookies[0].Secure)
	})

	t.Run("clear cookie expires it", func(t *testing.T) {
		service := cookieService(t, true)
		w := httptest.NewRecorder()

		service.ClearRefreshCookie(w)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)

		cookie := cookies[0]
		assert.Equal(t, RefreshCookieName, cookie.Name)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge, "browser must drop the cookie immediately")
		assert.Equal(t, "/api/auth", cookie.Path)
	})

	t.Run("read cookie from request", func(t *testing.T) {
		service := cookieService(t, true)

		r := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "from-browser"})

		assert.Equal(t, "from-browser", service.RefreshFromRequest(r))
	})

	t.Run("read cookie absent", func(t *testing.T) {
		service := cookieService(t, true)

		r := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)

		assert.Empty(t, service.RefreshFromRequest(r))
	})
}
