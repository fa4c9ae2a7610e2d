package auth

import (
	"net/http"
	"time"

	"github.com/questlog/questlog/internal/models"
)

// The refresh token travels only in this cookie, never in a JSON body.
// Path-scoping to the auth endpoint group keeps it off every other request.
const (
	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/api/auth"
)

// SetRefreshCookie writes the refresh token as an HttpOnly strict-samesite
// cookie scoped to the auth endpoints
func (s *AuthService) SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refresh.Value,
		Path:     RefreshCookiePath,
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie overwrites the cookie with an empty, expired one
func (s *AuthService) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// RefreshFromRequest extracts the refresh token cookie value, empty string
// if the cookie is absent
func (s *AuthService) RefreshFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
