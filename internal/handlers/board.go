package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/handlers/render"
	"github.com/questlog/questlog/internal/handlers/userctx"
	"github.com/questlog/questlog/internal/logger"
	"github.com/questlog/questlog/internal/models"
	"github.com/questlog/questlog/internal/repository"
)

const boardDateLayout = "2006-01-02"

type BoardService interface {
	Board(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.ActivityCard, error)
	CreateCard(ctx context.Context, arg repository.CreateCardParams) (models.ActivityCard, error)
	UpdateCard(ctx context.Context, arg repository.UpdateCardParams) (models.ActivityCard, error)
	DeleteCard(ctx context.Context, cardID uuid.UUID, userID uuid.UUID) error
}

type BoardHandler struct {
	board  BoardService
	logger logger.Logger
}

func NewBoard(board BoardService, l logger.Logger) *BoardHandler {
	return &BoardHandler{board: board, logger: l}
}

type cardView struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	Title     string    `json:"title"`
	Note      string    `json:"note,omitempty"`
	XP        int64     `json:"xp"`
	CreatedAt time.Time `json:"created_at"`
}

func toCardView(c models.ActivityCard) cardView {
	return cardView{
		ID:        c.ID,
		Date:      c.CardDate.Format(boardDateLayout),
		Title:     c.Title,
		Note:      c.Note,
		XP:        c.XP,
		CreatedAt: c.CreatedAt,
	}
}

// GET /board?date=2024-01-01, today when the parameter is absent
func (h *BoardHandler) Board(w http.ResponseWriter, r *http.Request) {
	type boardResponse struct {
		Date  string     `json:"date"`
		Cards []cardView `json:"cards"`
	}

	user, _ := userctx.FromContext(r.Context())

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(boardDateLayout, raw)
		if err != nil {
			render.ServiceError(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	cards, err := h.board.Board(r.Context(), user.ID, date)
	if err != nil {
		h.logger.Error("board read failed", "user_id", user.ID, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, toCardView(c))
	}

	render.JSON(w, boardResponse{Date: date.Format(boardDateLayout), Cards: views})
}

// POST /board/cards
func (h *BoardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	type createRequest struct {
		Date  string `json:"date" validate:"required"`
		Title string `json:"title" validate:"required,min=1,max=200"`
		Note  string `json:"note" validate:"max=2000"`
		XP    int64  `json:"xp" validate:"min=0,max=1000"`
	}

	user, _ := userctx.FromContext(r.Context())

	data, err := render.BindAndValidate[createRequest](w, r)
	if err != nil {
		return
	}

	date, err := time.Parse(boardDateLayout, data.Date)
	if err != nil {
		render.ServiceError(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	card, err := h.board.CreateCard(r.Context(), repository.CreateCardParams{
		UserID:   user.ID,
		CardDate: date,
		Title:    data.Title,
		Note:     data.Note,
		XP:       data.XP,
	})
	if err != nil {
		h.logger.Error("card create failed", "user_id", user.ID, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, toCardView(card))
}

// PATCH /board/cards/{id}
func (h *BoardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	type updateRequest struct {
		Title string `json:"title" validate:"required,min=1,max=200"`
		Note  string `json:"note" validate:"max=2000"`
	}

	user, _ := userctx.FromContext(r.Context())

	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	data, err := render.BindAndValidate[updateRequest](w, r)
	if err != nil {
		return
	}

	card, err := h.board.UpdateCard(r.Context(), repository.UpdateCardParams{
		CardID: cardID,
		UserID: user.ID,
		Title:  data.Title,
		Note:   data.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrCardNotFound):
			render.ServiceError(w, "Card not found", http.StatusNotFound)
		default:
			h.logger.Error("card update failed", "user_id", user.ID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, toCardView(card))
}

// DELETE /board/cards/{id}
func (h *BoardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	type deleteResponse struct {
		Message string `json:"message"`
	}

	user, _ := userctx.FromContext(r.Context())

	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	if err := h.board.DeleteCard(r.Context(), cardID, user.ID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrCardNotFound):
			render.ServiceError(w, "Card not found", http.StatusNotFound)
		default:
			h.logger.Error("card delete failed", "user_id", user.ID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, deleteResponse{Message: "Card deleted"})
}
