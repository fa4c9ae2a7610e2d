package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Token failure taxonomy. Handlers collapse all three to one generic
	// "session invalid" answer so a caller can't tell which check failed.
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token is expired")
	ErrRevokedToken = errors.New("token is revoked or already used")

	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrCardNotFound = errors.New("activity card not found")
)
