package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog/questlog/internal/testutil"
)

func Test_SessionRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("insert and exists", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := SessionRepo{DB: tx}
			user := mustCreateUser(t, tx, "sessions@example.com")
			tokenID := uuid.New()

			err := r.Insert(t.Context(), tokenID, user.ID)
			require.NoError(t, err)

			exists, err := r.Exists(t.Context(), tokenID, user.ID)
			require.NoError(t, err)
			assert.True(t, exists)
		})
	})

	t.Run("exists false for unknown token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := SessionRepo{DB: tx}
			user := mustCreateUser(t, tx, "unknown-token@example.com")

			exists, err := r.Exists(t.Context(), uuid.New(), user.ID)

			require.NoError(t, err)
			assert.False(t, exists)
		})
	})

	t.Run("exists false for wrong user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := SessionRepo{DB: tx}
			owner := mustCreateUser(t, tx, "owner@example.com")
			other := mustCreateUser(t, tx, "other@example.com")
			tokenID := uuid.New()
			require.NoError(t, r.Insert(t.Context(), tokenID, owner.ID))

			exists, err := r.Exists(t.Context(), tokenID, other.ID)

			require.NoError(t, err)
			assert.False(t, exists, "token of one user must not match another user")
		})
	})

	t.Run("delete reports true exactly once", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := SessionRepo{DB: tx}
			user := mustCreateUser(t, tx, "delete-once@example.com")
			tokenID := uuid.New()
			require.NoError(t, r.Insert(t.Context(), tokenID, user.ID))

			deleted, err := r.Delete(t.Context(), tokenID, user.ID)
			require.NoError(t, err)
			assert.True(t, deleted, "first delete must observe the row")

			deleted, err = r.Delete(t.Context(), tokenID, user.ID)
			require.NoError(t, err)
			assert.False(t, deleted, "second delete is the replay and must see nothing")
		})
	})

	t.Run("delete all for user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := SessionRepo{DB: tx}
			user := mustCreateUser(t, tx, "logout-everywhere@example.com")
			keeper := mustCreateUser(t, tx, "keeper@example.com")

			tokens := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
			for _, tokenID := range tokens {
				require.NoError(t, r.Insert(t.Context(), tokenID, user.ID))
			}
			keeperToken := uuid.New()
			require.NoError(t, r.Insert(t.Context(), keeperToken, keeper.ID))

			err := r.DeleteAllForUser(t.Context(), user.ID)
			require.NoError(t, err)

			for _, tokenID := range tokens {
				exists, err := r.Exists(t.Context(), tokenID, user.ID)
				require.NoError(t, err)
				assert.False(t, exists, "every session of the user must be gone")
			}

			exists, err := r.Exists(t.Context(), keeperToken, keeper.ID)
			require.NoError(t, err)
			assert.True(t, exists, "other users keep their sessions")
		})
	})
}
