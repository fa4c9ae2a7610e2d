package models

import (
	"time"

	"github.com/google/uuid"
)

type Badge struct {
	UserID    uuid.UUID
	Code      string
	AwardedAt time.Time
}
