package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/questlog/questlog/internal/handlers/render"
	"github.com/questlog/questlog/internal/handlers/userctx"
	"github.com/questlog/questlog/internal/logger"
	"github.com/questlog/questlog/internal/service/progress"
)

type ProgressService interface {
	Dashboard(ctx context.Context, userID uuid.UUID) (progress.Dashboard, error)
	Badges(ctx context.Context, userID uuid.UUID) ([]progress.BadgeView, error)
}

type ProgressHandler struct {
	progress ProgressService
	logger   logger.Logger
}

func NewProgress(p ProgressService, l logger.Logger) *ProgressHandler {
	return &ProgressHandler{progress: p, logger: l}
}

// GET /dash
func (h *ProgressHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := userctx.FromContext(r.Context())

	dash, err := h.progress.Dashboard(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("dashboard read failed", "user_id", user.ID, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, dash)
}

// GET /badges
func (h *ProgressHandler) Badges(w http.ResponseWriter, r *http.Request) {
	type badgesResponse struct {
		Badges []progress.BadgeView `json:"badges"`
	}

	user, _ := userctx.FromContext(r.Context())

	badges, err := h.progress.Badges(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("badges read failed", "user_id", user.ID, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, badgesResponse{Badges: badges})
}

// GET /me
func (h *ProgressHandler) Me(w http.ResponseWriter, r *http.Request) {
	type meResponse struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
		XP    int64     `json:"xp"`
	}

	user, _ := userctx.FromContext(r.Context())
	render.JSON(w, meResponse{ID: user.ID, Email: user.Email, XP: user.XP})
}
