package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/handlers/render"
	"github.com/questlog/questlog/internal/logger"
	"github.com/questlog/questlog/internal/models"
	"github.com/questlog/questlog/internal/ratelimit"
)

// All authentication failures collapse to one generic answer; which check
// failed (signature, expiry, revocation) is deliberately not reported.
const sessionInvalidMessage = "Session invalid, please log in again"

type AuthService interface {
	Register(ctx context.Context, email string, password string) (models.TokenPair, error)
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)

	SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken)
	ClearRefreshCookie(w http.ResponseWriter)
	RefreshFromRequest(r *http.Request) string
}

// RateLimiter gates the login and refresh endpoints before any service
// work happens
type RateLimiter interface {
	CheckLogin(ctx context.Context, ip string, account string) ratelimit.Decision
	CheckRefresh(ctx context.Context, ip string, refreshToken string) ratelimit.Decision
	ResetLogin(ctx context.Context, ip string, account string)
}

type AuthHandler struct {
	auth    AuthService
	limiter RateLimiter
	logger  logger.Logger
}

func NewAuth(auth AuthService, limiter RateLimiter, l logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter, logger: l}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /logout", h.logout)

	return mux
}

// tokenResponse is the authenticated answer: the access token travels in
// the body, the refresh token only in the cookie
type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type registerRequest struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=128"`
	}

	data, err := render.BindAndValidate[registerRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.auth.Register(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			h.logger.Error("register failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.auth.SetRefreshCookie(w, pair.Refresh)
	render.JSON(w, tokenResponse{AccessToken: pair.Access.Value, ExpiresAt: pair.Access.ExpiresAt})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[loginRequest](w, r)
	if err != nil {
		return
	}

	ip := clientIP(r)

	if decision := h.limiter.CheckLogin(r.Context(), ip, data.Email); !decision.Allowed {
		render.RateLimited(w, decision.RetryAfterSeconds())
		return
	}

	pair, err := h.auth.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// Proven identity regains its full quota right away
	h.limiter.ResetLogin(r.Context(), ip, data.Email)

	h.auth.SetRefreshCookie(w, pair.Refresh)
	render.JSON(w, tokenResponse{AccessToken: pair.Access.Value, ExpiresAt: pair.Access.ExpiresAt})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	refresh := h.auth.RefreshFromRequest(r)

	// An absent cookie still consumes the per-IP window
	if decision := h.limiter.CheckRefresh(r.Context(), clientIP(r), refresh); !decision.Allowed {
		render.RateLimited(w, decision.RetryAfterSeconds())
		return
	}

	if refresh == "" {
		render.ServiceError(w, sessionInvalidMessage, http.StatusUnauthorized)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), refresh)
	if err != nil {
		render.ServiceError(w, sessionInvalidMessage, http.StatusUnauthorized)
		return
	}

	h.auth.SetRefreshCookie(w, pair.Refresh)
	render.JSON(w, tokenResponse{AccessToken: pair.Access.Value, ExpiresAt: pair.Access.ExpiresAt})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type logoutResponse struct {
		Message string `json:"message"`
	}

	user, err := h.auth.UserFromRequest(r.Context(), r)
	if err != nil {
		render.ServiceError(w, sessionInvalidMessage, http.StatusUnauthorized)
		return
	}

	if err := h.auth.Logout(r.Context(), user.ID); err != nil {
		h.logger.Error("logout failed", "user_id", user.ID, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.auth.ClearRefreshCookie(w)
	render.JSON(w, logoutResponse{Message: "Logged out everywhere"})
}
