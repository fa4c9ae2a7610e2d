package middleware

import (
	"context"
	"net/http"

	"github.com/questlog/questlog/internal/handlers/render"
	"github.com/questlog/questlog/internal/handlers/userctx"
	"github.com/questlog/questlog/internal/models"
)

// All authentication failures collapse to this one answer so callers
// can't probe which check failed
const sessionInvalidMessage = "Session invalid, please log in again"

type authService interface {
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.UserFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, sessionInvalidMessage, http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
