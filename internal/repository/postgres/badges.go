package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/questlog/questlog/internal/models"
)

type BadgeRepo struct {
	DB DBTX
}

const awardBadge = `-- name: AwardBadge
INSERT INTO badges (user_id, code)
VALUES ($1, $2)
ON CONFLICT (user_id, code) DO NOTHING
RETURNING code
`

// Award inserts the badge row and reports whether the award is new
func (r *BadgeRepo) Award(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	rows, _ := r.DB.Query(ctx, awardBadge, userID, code)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[string])

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows): // conflict, already awarded
		return false, nil
	default:
		return false, fmt.Errorf("db error: %w", err)
	}
}

const listBadges = `-- name: ListBadges
SELECT user_id, code, awarded_at FROM badges
WHERE user_id = $1
ORDER BY awarded_at
`

func (r *BadgeRepo) ListBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	rows, _ := r.DB.Query(ctx, listBadges, userID)
	badges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Badge, error) {
		var b models.Badge
		err := row.Scan(&b.UserID, &b.Code, &b.AwardedAt)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return badges, nil
}
