package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/repository"
	"github.com/questlog/questlog/internal/testutil"
)

func mustDate(value string) time.Time {
	dt, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_CardRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create card ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := CardRepo{DB: tx}
			user := mustCreateUser(t, tx, "cards@example.com")

			card, err := r.CreateCard(t.Context(), repository.CreateCardParams{
				UserID:   user.ID,
				CardDate: mustDate("2026-08-30"),
				Title:    "Morning run",
				Note:     "5k in the park",
				XP:       25,
			})

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, card.ID)
			assert.Equal(t, user.ID, card.UserID)
			assert.Equal(t, "Morning run", card.Title)
			assert.Equal(t, "5k in the park", card.Note)
			assert.Equal(t, int64(25), card.XP)
			assert.WithinDuration(t, mustDate("2026-08-30"), card.CardDate, 0)
			assert.WithinDuration(t, time.Now(), card.CreatedAt, time.Second)
		})
	})

	t.Run("list cards by date ordered oldest first", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := CardRepo{DB: tx}
			user := mustCreateUser(t, tx, "board@example.com")
			day := mustDate("2026-08-30")

			for _, title := range []string{"first", "second", "third"} {
				_, err := r.CreateCard(t.Context(), repository.CreateCardParams{
					UserID:   user.ID,
					CardDate: day,
					Title:    title,
					XP:       10,
				})
				require.NoError(t, err)
			}
			// Card on another day must not show up
			_, err := r.CreateCard(t.Context(), repository.CreateCardParams{
				UserID:   user.ID,
				CardDate: mustDate("2026-08-31"),
				Title:    "tomorrow",
				XP:       10,
			})
			require.NoError(t, err)

			cards, err := r.ListCardsByDate(t.Context(), user.ID, day)

			require.NoError(t, err)
			require.Len(t, cards, 3)
			assert.Equal(t, "first", cards[0].Title)
			assert.Equal(t, "second", cards[1].Title)
			assert.Equal(t, "third", cards[2].Title)
		})
	})

	t.Run("list cards empty day", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := CardRepo{DB: tx}
			user := mustCreateUser(t, tx, "empty-day@example.com")

			cards, err := r.ListCardsByDate(t.Context(), user.ID, mustDate("2026-01-01"))

			require.NoError(t, err)
			assert.Empty(t, cards)
		})
	})

	t.Run("update card ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := CardRepo{DB: tx}
			user := mustCreateUser(t, tx, "update@example.com")
			card, err := r.CreateCard(t.Context(), repository.CreateCardParams{
				UserID:   user.ID,
				CardDate: mustDate("2026-08-30"),
				Title:    "old title",
				Note:     "old note",
				XP:       10,
			})
			require.NoError(t, err)

			updated, err := r.UpdateCard(t.Context(), repository.UpdateCardParams{
				CardID: card.ID,
				UserID: user.ID,
				Title:  "new title",
				Note:   "new note",
			})

			require.NoError(t, err)
			assert.Equal(t, card.ID, updated.ID)
			assert.Equal(t, "new title", updated.Title)
			assert.Equal(t, "new note", updated.Note)
			assert.Equal(t, card.XP, updated.XP, "update must not change xp")
		})
	})

	t.Run("update card of another user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := CardRepo{DB: tx}
			owner := mustCreateUser(t, tx, "card-owner@example.com")
			intruder := mustCreateUser(t, tx, "intruder@example.com")
			card, err := r.CreateCard(t.Context(), repository.CreateCardParams{
				UserID:   owner.ID,
				CardDate: mustDate("2026-08-30"),
				Title:    "mine",
				XP:       10,
			})
			require.NoError(t, err)

			_, err = r.UpdateCard(t.Context(), repository.UpdateCardParams{
				CardID: card.ID,
				UserID: intruder.ID,
				Title:  "stolen",
			})

			assert.ErrorIs(t, err, apperrors.ErrCardNotFound, "another user's card must look like it does not exist")
		})
	})

	t.Run("delete card returns the deleted row", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := CardRepo{DB: tx}
			user := mustCreateUser(t, tx, "delete-card@example.com")
			card, err := r.CreateCard(t.Context(), repository.CreateCardParams{
				UserID:   user.ID,
				CardDate: mustDate("2026-08-30"),
				Title:    "to be removed",
				XP:       40,
			})
			require.NoError(t, err)

			deleted, err := r.DeleteCard(t.Context(), card.ID, user.ID)
			require.NoError(t, err)
			assert.Equal(t, card.ID, deleted.ID)
			assert.Equal(t, int64(40), deleted.XP, "caller needs the xp to take it back")

			_, err = r.DeleteCard(t.Context(), card.ID, user.ID)
			assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
		})
	})

	t.Run("count cards", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := CardRepo{DB: tx}
			user := mustCreateUser(t, tx, "count@example.com")

			count, err := r.CountCards(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), count)

			for i := range 3 {
				_, err := r.CreateCard(t.Context(), repository.CreateCardParams{
					UserID:   user.ID,
					CardDate: mustDate("2026-08-30").AddDate(0, 0, i),
					Title:    "card",
					XP:       5,
				})
				require.NoError(t, err)
			}

			count, err = r.CountCards(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})
	})
}
