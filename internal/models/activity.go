package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityCard is one logged activity on a user's daily board
type ActivityCard struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CardDate  time.Time // date only, the board day this card belongs to
	Title     string
	Note      string
	XP        int64
	CreatedAt time.Time
}
