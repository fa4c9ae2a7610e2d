// Package board manages the user's daily activity board. Reads go through
// the versioned cache; every mutation bumps the board and dash versions so
// later reads recompute.
package board

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/questlog/questlog/internal/cache"
	"github.com/questlog/questlog/internal/logger"
	"github.com/questlog/questlog/internal/models"
	"github.com/questlog/questlog/internal/repository"
)

const (
	boardTTL   = time.Minute
	dateLayout = "2006-01-02"
)

// BadgeEvaluator re-checks badge thresholds after a mutation
type BadgeEvaluator interface {
	EvaluateBadges(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	storage  repository.Storage
	cache    *cache.Cache
	versions *cache.Versions
	badges   BadgeEvaluator
	logger   logger.Logger
}

func NewService(storage repository.Storage, c *cache.Cache, versions *cache.Versions, badges BadgeEvaluator, l logger.Logger) *Service {
	return &Service{
		storage:  storage,
		cache:    c,
		versions: versions,
		badges:   badges,
		logger:   l,
	}
}

// Board returns the user's cards for one day, cached under the board version
func (s *Service) Board(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.ActivityCard, error) {
	return cache.ReadThrough(ctx, s.cache, userID, "board", date.Format(dateLayout), cache.FieldBoard, boardTTL,
		func(ctx context.Context) ([]models.ActivityCard, error) {
			return s.storage.Card().ListCardsByDate(ctx, userID, date)
		},
	)
}

// CreateCard logs a new activity and grants its XP in one transaction
func (s *Service) CreateCard(ctx context.Context, arg repository.CreateCardParams) (models.ActivityCard, error) {
	var card models.ActivityCard
	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		var err error
		card, err = tx.Card().CreateCard(ctx, arg)
		if err != nil {
			return err
		}

		if arg.XP != 0 {
			if _, err := tx.User().AddXP(ctx, arg.UserID, arg.XP); err != nil {
				return fmt.Errorf("error while granting XP. Err: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return card, err
	}

	s.invalidate(ctx, arg.UserID, cache.FieldBoard, cache.FieldDash)
	s.evaluateBadges(ctx, arg.UserID)

	return card, nil
}

func (s *Service) UpdateCard(ctx context.Context, arg repository.UpdateCardParams) (models.ActivityCard, error) {
	card, err := s.storage.Card().UpdateCard(ctx, arg)
	if err != nil {
		return card, err
	}

	s.invalidate(ctx, arg.UserID, cache.FieldBoard)

	return card, nil
}

// DeleteCard removes the card and takes back the XP it granted
func (s *Service) DeleteCard(ctx context.Context, cardID uuid.UUID, userID uuid.UUID) error {
	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		card, err := tx.Card().DeleteCard(ctx, cardID, userID)
		if err != nil {
			return err
		}

		if card.XP != 0 {
			if _, err := tx.User().AddXP(ctx, userID, -card.XP); err != nil {
				return fmt.Errorf("error while reclaiming XP. Err: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, userID, cache.FieldBoard, cache.FieldDash)

	return nil
}

// invalidate bumps cache versions after a committed mutation. A failed bump
// only delays invalidation until TTL expiry: stale cache, never wrong data,
// so the mutation is not rolled back.
func (s *Service) invalidate(ctx context.Context, userID uuid.UUID, fields ...string) {
	for _, field := range fields {
		if _, err := s.versions.Bump(ctx, userID, field, 1); err != nil {
			s.logger.Warn("version bump failed, cache may serve stale data until TTL",
				"user_id", userID, "field", field, "error", err.Error())
		}
	}
}

func (s *Service) evaluateBadges(ctx context.Context, userID uuid.UUID) {
	if s.badges == nil {
		return
	}
	if err := s.badges.EvaluateBadges(ctx, userID); err != nil {
		s.logger.Warn("badge evaluation failed", "user_id", userID, "error", err.Error())
	}
}
