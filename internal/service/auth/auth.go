package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/models"
	"github.com/questlog/questlog/internal/repository"
	"github.com/questlog/questlog/internal/service/auth/tokenmanager"
)

type Config struct {
	// Hasher used during registration and login. Defaults to BcryptHasher.
	Hasher PasswordHasher

	// CookieSecure controls the Secure flag on the refresh cookie.
	// Off only for plain-HTTP development setups.
	CookieSecure bool
}

// AuthService owns registration, login, token rotation and logout
type AuthService struct {
	token        *tokenmanager.TokenManager
	hasher       PasswordHasher
	storage      repository.Storage
	cookieSecure bool
}

func NewService(cfg Config, token *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	if token == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	return &AuthService{
		token:        token,
		hasher:       hasher,
		storage:      storage,
		cookieSecure: cfg.CookieSecure,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, email string, password string) (models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, normalizeEmail(email), hash)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.IssuePair(ctx, user.ID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		// Burn a comparison anyway so existing and missing accounts take
		// about the same time
		_ = s.hasher.Compare(phantomHash, password)
		return models.TokenPair{}, apperrors.ErrUserNotFound
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, apperrors.ErrUserNotFound
	}

	pair, err := s.token.IssuePair(ctx, user.ID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

// Refresh rotates the presented refresh token into a fresh pair
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	return s.token.Rotate(ctx, refresh)
}

// Logout revokes every outstanding refresh token of the user
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.token.RevokeAll(ctx, userID)
}

// VerifyAccess checks an access token by signature and expiry alone
func (s *AuthService) VerifyAccess(access string) (uuid.UUID, error) {
	return s.token.ParseAccess(access)
}

// UserFromRequest authenticates the request by its bearer access token
func (s *AuthService) UserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	access, found := strings.CutPrefix(header, "Bearer ")
	if !found || access == "" {
		return models.User{}, apperrors.ErrInvalidToken
	}

	userID, err := s.token.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	return s.storage.User().GetUserByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// phantomHash is a valid bcrypt hash of an unguessable value, compared
// against when the account does not exist
const phantomHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
