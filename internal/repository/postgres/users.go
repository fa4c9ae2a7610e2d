package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (email, password_hash)
VALUES ($1, $2)
RETURNING id, created_at, email, password_hash, xp
`

func (r *UserRepo) CreateUser(ctx context.Context, email string, hashedPassword string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, email, hashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, apperrors.ErrUserAlreadyExists
		}
		return user, err
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, email, password_hash, xp FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return user, apperrors.ErrUserNotFound
	}

	return user, err
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, created_at, email, password_hash, xp FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return user, apperrors.ErrUserNotFound
	}

	return user, err
}

const addXP = `-- name: AddXP
UPDATE users
SET xp = xp + $2
WHERE id = $1
RETURNING xp
`

func (r *UserRepo) AddXP(ctx context.Context, userID uuid.UUID, delta int64) (int64, error) {
	rows, _ := r.DB.Query(ctx, addXP, userID, delta)
	total, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return 0, apperrors.ErrUserNotFound
	}

	return total, err
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Email, &u.HashedPassword, &u.XP)
	return u, err
}
