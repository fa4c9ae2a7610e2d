package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/models"
	"github.com/questlog/questlog/internal/testutil"
)

// mustCreateUser creates a user for tests that need one to exist
func mustCreateUser(t *testing.T, db DBTX, email string) models.User {
	t.Helper()

	r := UserRepo{DB: db}
	user, err := r.CreateUser(t.Context(), email, "hashedpassword123")
	require.NoError(t, err, "test user must be created")
	return user
}

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			user, err := r.CreateUser(t.Context(), "new@example.com", "hashedpassword123")

			require.NoError(t, err)
			assert.Equal(t, "new@example.com", user.Email)
			assert.Equal(t, "hashedpassword123", user.HashedPassword)
			assert.Equal(t, int64(0), user.XP, "new user starts with zero xp")
			assert.WithinDuration(t, time.Now(), user.CreatedAt, time.Second, "CreatedAt should be recent")
		})
	})

	t.Run("create user duplicate email", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			_, err := r.CreateUser(t.Context(), "dup@example.com", "hashedpassword123")
			require.NoError(t, err)

			_, err = r.CreateUser(t.Context(), "dup@example.com", "otherhash")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists, "should return well known error")
		})
	})

	t.Run("get user by id ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := mustCreateUser(t, tx, "byid@example.com")

			got, err := r.GetUserByID(t.Context(), created.ID)

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, created.Email, got.Email)
			assert.Equal(t, created.HashedPassword, got.HashedPassword)
			assert.Equal(t, created.CreatedAt, got.CreatedAt)
		})
	})

	t.Run("get user by id not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByID(t.Context(), uuid.New())

			assert.Error(t, err, "Should return error for non-existent user")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
		})
	})

	t.Run("get user by email ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := mustCreateUser(t, tx, "byemail@example.com")

			got, err := r.GetUserByEmail(t.Context(), "byemail@example.com")

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, created.Email, got.Email)
		})
	})

	t.Run("get user by email not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByEmail(t.Context(), "nobody@example.com")

			assert.Error(t, err, "Should return error for non-existent user")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("add xp accumulates", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := mustCreateUser(t, tx, "xp@example.com")

			total, err := r.AddXP(t.Context(), created.ID, 30)
			require.NoError(t, err)
			assert.Equal(t, int64(30), total)

			total, err = r.AddXP(t.Context(), created.ID, 15)
			require.NoError(t, err)
			assert.Equal(t, int64(45), total)
		})
	})

	t.Run("add xp negative delta", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := mustCreateUser(t, tx, "xpneg@example.com")
			_, err := r.AddXP(t.Context(), created.ID, 30)
			require.NoError(t, err)

			total, err := r.AddXP(t.Context(), created.ID, -10)

			require.NoError(t, err)
			assert.Equal(t, int64(20), total, "deleting a card takes its xp back")
		})
	})

	t.Run("add xp for unknown user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.AddXP(t.Context(), uuid.New(), 10)

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}
