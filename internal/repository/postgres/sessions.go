package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SessionRepo struct {
	DB DBTX
}

const insertSession = `-- name: InsertSession
INSERT INTO refresh_sessions (token_id, user_id)
VALUES ($1, $2)
`

func (r *SessionRepo) Insert(ctx context.Context, tokenID uuid.UUID, userID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, insertSession, tokenID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const sessionExists = `-- name: SessionExists
SELECT EXISTS (
    SELECT 1 FROM refresh_sessions
    WHERE token_id = $1 AND user_id = $2
)
`

func (r *SessionRepo) Exists(ctx context.Context, tokenID uuid.UUID, userID uuid.UUID) (bool, error) {
	rows, _ := r.DB.Query(ctx, sessionExists, tokenID, userID)
	exists, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

const deleteSession = `-- name: DeleteSession
DELETE FROM refresh_sessions
WHERE token_id = $1 AND user_id = $2
RETURNING token_id
`

// Delete removes the session row and reports whether it was there.
// RETURNING makes the delete the single atomic reuse-detection gate:
// concurrent deletes of the same token see true exactly once.
func (r *SessionRepo) Delete(ctx context.Context, tokenID uuid.UUID, userID uuid.UUID) (bool, error) {
	rows, _ := r.DB.Query(ctx, deleteSession, tokenID, userID)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("db error: %w", err)
	}
}

const deleteAllSessions = `-- name: DeleteAllSessions
DELETE FROM refresh_sessions
WHERE user_id = $1
`

func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, deleteAllSessions, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
