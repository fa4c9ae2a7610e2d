package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/questlog/questlog/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, hashedPassword string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Atomically add XP to the user, returns the new total
	AddXP(ctx context.Context, userID uuid.UUID, delta int64) (int64, error)
}

// SessionRepo keeps server-side refresh-session rows.
// A row exists only while the corresponding refresh token is still usable.
type SessionRepo interface {
	// Insert a session row for a freshly minted refresh token
	Insert(ctx context.Context, tokenID uuid.UUID, userID uuid.UUID) error

	// Report whether a row exists for the (tokenID, userID) pair
	Exists(ctx context.Context, tokenID uuid.UUID, userID uuid.UUID) (bool, error)

	// Delete the row for (tokenID, userID) and report whether it existed.
	// The delete is the reuse-detection gate: under concurrent refreshes of
	// the same token exactly one caller observes deleted == true.
	Delete(ctx context.Context, tokenID uuid.UUID, userID uuid.UUID) (bool, error)

	// Delete every session row of the user ("log out everywhere")
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

// Card repository interface
type CardRepo interface {
	CreateCard(ctx context.Context, arg CreateCardParams) (models.ActivityCard, error)

	// List cards of the user's board for one day, oldest first
	ListCardsByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.ActivityCard, error)

	// Update card owned by the user
	// If no such card must return apperrors.ErrCardNotFound
	UpdateCard(ctx context.Context, arg UpdateCardParams) (models.ActivityCard, error)

	// Delete card owned by the user and return the deleted card
	// If no such card must return apperrors.ErrCardNotFound
	DeleteCard(ctx context.Context, cardID uuid.UUID, userID uuid.UUID) (models.ActivityCard, error)

	CountCards(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Badge repository interface
type BadgeRepo interface {
	// Award the badge unless already awarded; reports whether it is new
	Award(ctx context.Context, userID uuid.UUID, code string) (bool, error)

	ListBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error)
}

type CreateCardParams struct {
	UserID   uuid.UUID
	CardDate time.Time
	Title    string
	Note     string
	XP       int64
}

type UpdateCardParams struct {
	CardID uuid.UUID
	UserID uuid.UUID
	Title  string
	Note   string
}

// Storage combines all repositories and transaction support
type Storage interface {
	User() UserRepo
	Session() SessionRepo
	Card() CardRepo
	Badge() BadgeRepo

	// InTx runs fn with a Storage bound to one transaction.
	// Commits when fn returns nil, rolls back otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}
