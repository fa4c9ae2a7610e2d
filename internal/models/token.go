package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshSession is the server-side record of one outstanding refresh token.
// A row exists if and only if the token has not been used or revoked yet.
type RefreshSession struct {
	TokenID   uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair issued by TokenManager on login, register or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
