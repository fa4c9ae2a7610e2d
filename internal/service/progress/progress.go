// Package progress computes the user's XP dashboard and badge list.
// Leveling is a flat linear formula; badges are a flat enumeration of
// threshold checks re-run after the board mutates.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/questlog/questlog/internal/cache"
	"github.com/questlog/questlog/internal/logger"
	"github.com/questlog/questlog/internal/repository"
)

const (
	xpPerLevel = 100

	dashTTL   = time.Minute
	badgesTTL = 5 * time.Minute
)

type Dashboard struct {
	XP          int64 `json:"xp"`
	Level       int64 `json:"level"`
	XPIntoLevel int64 `json:"xp_into_level"`
	XPToNext    int64 `json:"xp_to_next"`
	Cards       int64 `json:"cards"`
}

type BadgeView struct {
	Code      string    `json:"code"`
	AwardedAt time.Time `json:"awarded_at"`
}

type stats struct {
	XP    int64
	Cards int64
}

// Flat threshold rules. Order is the award order on a single evaluation.
var badgeRules = []struct {
	Code     string
	Unlocked func(s stats) bool
}{
	{"first-card", func(s stats) bool { return s.Cards >= 1 }},
	{"ten-cards", func(s stats) bool { return s.Cards >= 10 }},
	{"fifty-cards", func(s stats) bool { return s.Cards >= 50 }},
	{"level-5", func(s stats) bool { return levelForXP(s.XP) >= 5 }},
	{"xp-1000", func(s stats) bool { return s.XP >= 1000 }},
}

type Service struct {
	storage  repository.Storage
	cache    *cache.Cache
	versions *cache.Versions
	logger   logger.Logger
}

func NewService(storage repository.Storage, c *cache.Cache, versions *cache.Versions, l logger.Logger) *Service {
	return &Service{
		storage:  storage,
		cache:    c,
		versions: versions,
		logger:   l,
	}
}

// Dashboard returns the user's XP summary, cached under the dash version
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (Dashboard, error) {
	return cache.ReadThrough(ctx, s.cache, userID, "dash", "summary", cache.FieldDash, dashTTL,
		func(ctx context.Context) (Dashboard, error) {
			user, err := s.storage.User().GetUserByID(ctx, userID)
			if err != nil {
				return Dashboard{}, err
			}

			cards, err := s.storage.Card().CountCards(ctx, userID)
			if err != nil {
				return Dashboard{}, err
			}

			level := levelForXP(user.XP)
			into := user.XP % xpPerLevel

			return Dashboard{
				XP:          user.XP,
				Level:       level,
				XPIntoLevel: into,
				XPToNext:    xpPerLevel - into,
				Cards:       cards,
			}, nil
		},
	)
}

// Badges returns the user's awarded badges, cached under the badges version
func (s *Service) Badges(ctx context.Context, userID uuid.UUID) ([]BadgeView, error) {
	return cache.ReadThrough(ctx, s.cache, userID, "badges", "all", cache.FieldBadges, badgesTTL,
		func(ctx context.Context) ([]BadgeView, error) {
			badges, err := s.storage.Badge().ListBadges(ctx, userID)
			if err != nil {
				return nil, err
			}

			views := make([]BadgeView, 0, len(badges))
			for _, b := range badges {
				views = append(views, BadgeView{Code: b.Code, AwardedAt: b.AwardedAt})
			}
			return views, nil
		},
	)
}

// EvaluateBadges re-checks every badge rule and awards the ones newly
// unlocked. The badges version is bumped only when something was awarded.
func (s *Service) EvaluateBadges(ctx context.Context, userID uuid.UUID) error {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	cards, err := s.storage.Card().CountCards(ctx, userID)
	if err != nil {
		return err
	}

	current := stats{XP: user.XP, Cards: cards}

	awarded := false
	for _, rule := range badgeRules {
		if !rule.Unlocked(current) {
			continue
		}

		isNew, err := s.storage.Badge().Award(ctx, userID, rule.Code)
		if err != nil {
			return fmt.Errorf("error while awarding badge %q. Err: %w", rule.Code, err)
		}
		awarded = awarded || isNew
	}

	if awarded {
		if _, err := s.versions.Bump(ctx, userID, cache.FieldBadges, 1); err != nil {
			s.logger.Warn("version bump failed, cache may serve stale data until TTL",
				"user_id", userID, "field", cache.FieldBadges, "error", err.Error())
		}
	}

	return nil
}

func levelForXP(xp int64) int64 {
	return xp/xpPerLevel + 1
}
