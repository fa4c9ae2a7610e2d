// Package tokenmanager issues and rotates the signed token pair.
//
// Access tokens are short-lived JWTs verified by signature alone; they are
// not individually revocable. Refresh tokens are long-lived JWTs that are
// additionally single-use: each carries a fresh token id (jti) whose
// server-side session row is deleted on first use. A refresh token whose
// row is gone was either rotated out, revoked by logout, or is a replay;
// all of them fail with apperrors.ErrRevokedToken.
package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/models"
	"github.com/questlog/questlog/internal/repository"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultSigningMethod   = "HS256"
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
}

// RefreshTokenClaims embeds the session token id as jti
type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
}

// Config with sensible defaults
type Config struct {
	// Secret key to sign tokens. Required.
	SecretKey string

	// JWT MAC algorithm. Default HS256.
	Alg string

	// Access and refresh token lifetimes
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	key        string
	alg        jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Storage for refresh-session rows
	storage repository.Storage
}

func New(cfg Config, storage repository.Storage) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:        cfg.SecretKey,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		storage:    storage,
	}, nil
}

// RefreshTTL reports the configured refresh token lifetime (cookie Max-Age)
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssuePair mints a fresh access/refresh pair and persists the refresh
// session row. Used on register and login.
func (m *TokenManager) IssuePair(ctx context.Context, userID uuid.UUID) (models.TokenPair, error) {
	return m.issuePair(ctx, m.storage, userID)
}

// Rotate consumes a presented refresh token and mints a replacement pair.
//
// The session-row delete and the replacement insert run in one database
// transaction, so a crash mid-rotation cannot strand the user without a
// replacement. Under concurrent rotations of the same token exactly one
// transaction observes the row; the others fail with ErrRevokedToken,
// which doubles as replay detection.
func (m *TokenManager) Rotate(ctx context.Context, refresh string) (models.TokenPair, error) {
	claims, err := m.parseRefresh(refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: malformed token id", apperrors.ErrInvalidToken)
	}

	var pair models.TokenPair
	err = m.storage.InTx(ctx, func(s repository.Storage) error {
		deleted, err := s.Session().Delete(ctx, tokenID, claims.UserID)
		if err != nil {
			return fmt.Errorf("error while consuming refresh session. Err: %w", err)
		}
		if !deleted {
			return apperrors.ErrRevokedToken
		}

		pair, err = m.issuePair(ctx, s, claims.UserID)
		return err
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// RevokeAll deletes every refresh session of the user ("log out everywhere")
func (m *TokenManager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return m.storage.Session().DeleteAllForUser(ctx, userID)
}

// ParseAccess validates an access token by signature and expiry only.
// No store lookup: the short lifetime bounds exposure.
func (m *TokenManager) ParseAccess(access string) (uuid.UUID, error) {
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)
	if err != nil {
		return uuid.Nil, mapJWTError(err)
	}

	return claims.UserID, nil
}

func (m *TokenManager) issuePair(ctx context.Context, s repository.Storage, userID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			UserID: userID,
		},
	)
	access, err := accessToken.SignedString([]byte(m.key))
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	tokenID := uuid.New()
	refreshToken := jwt.NewWithClaims(
		m.alg,
		RefreshTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        tokenID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			},
			UserID: userID,
		},
	)
	refresh, err := refreshToken.SignedString([]byte(m.key))
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	if err := s.Session().Insert(ctx, tokenID, userID); err != nil {
		return pair, fmt.Errorf("error while saving refresh session. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

func (m *TokenManager) parseRefresh(refresh string) (*RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	_, err := jwt.ParseWithClaims(
		refresh,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	return claims, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %v", apperrors.ErrExpiredToken, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
}
