package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/models"
	"github.com/questlog/questlog/internal/repository"
)

type CardRepo struct {
	DB DBTX
}

const createCard = `-- name: CreateCard
INSERT INTO activity_cards (user_id, card_date, title, note, xp)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, card_date, title, note, xp, created_at
`

func (r *CardRepo) CreateCard(ctx context.Context, arg repository.CreateCardParams) (models.ActivityCard, error) {
	rows, _ := r.DB.Query(ctx, createCard, arg.UserID, arg.CardDate, arg.Title, arg.Note, arg.XP)
	card, err := pgx.CollectOneRow(rows, rowToCard)
	if err != nil {
		return card, fmt.Errorf("db error: %w", err)
	}
	return card, nil
}

const listCardsByDate = `-- name: ListCardsByDate
SELECT id, user_id, card_date, title, note, xp, created_at
FROM activity_cards
WHERE user_id = $1 AND card_date = $2
ORDER BY created_at, id
`

func (r *CardRepo) ListCardsByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.ActivityCard, error) {
	rows, _ := r.DB.Query(ctx, listCardsByDate, userID, date)
	cards, err := pgx.CollectRows(rows, rowToCard)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cards, nil
}

const updateCard = `-- name: UpdateCard
UPDATE activity_cards
SET title = $3, note = $4
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, card_date, title, note, xp, created_at
`

func (r *CardRepo) UpdateCard(ctx context.Context, arg repository.UpdateCardParams) (models.ActivityCard, error) {
	rows, _ := r.DB.Query(ctx, updateCard, arg.CardID, arg.UserID, arg.Title, arg.Note)
	card, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, pgx.ErrNoRows):
		return card, apperrors.ErrCardNotFound
	default:
		return card, fmt.Errorf("db error: %w", err)
	}
}

const deleteCard = `-- name: DeleteCard
DELETE FROM activity_cards
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, card_date, title, note, xp, created_at
`

func (r *CardRepo) DeleteCard(ctx context.Context, cardID uuid.UUID, userID uuid.UUID) (models.ActivityCard, error) {
	rows, _ := r.DB.Query(ctx, deleteCard, cardID, userID)
	card, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, pgx.ErrNoRows):
		return card, apperrors.ErrCardNotFound
	default:
		return card, fmt.Errorf("db error: %w", err)
	}
}

const countCards = `-- name: CountCards
SELECT count(*) FROM activity_cards
WHERE user_id = $1
`

func (r *CardRepo) CountCards(ctx context.Context, userID uuid.UUID) (int64, error) {
	rows, _ := r.DB.Query(ctx, countCards, userID)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func rowToCard(row pgx.CollectableRow) (models.ActivityCard, error) {
	var c models.ActivityCard
	err := row.Scan(&c.ID, &c.UserID, &c.CardDate, &c.Title, &c.Note, &c.XP, &c.CreatedAt)
	return c, err
}
