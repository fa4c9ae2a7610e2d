package cache

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/testutil"
)

func Test_Versions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("unseen field defaults to zero", func(t *testing.T) {
		rdb, _ := testutil.StartRedis(t)
		versions := NewVersions(rdb, "ql", "test")

		version, err := versions.Get(t.Context(), userID, FieldBoard)
		require.NoError(t, err)
		assert.Equal(t, int64(0), version)
	})

	t.Run("bump increments by delta", func(t *testing.T) {
		rdb, _ := testutil.StartRedis(t)
		versions := NewVersions(rdb, "ql", "test")

		version, err := versions.Bump(t.Context(), userID, FieldBoard, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)

		version, err = versions.Bump(t.Context(), userID, FieldBoard, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(4), version)

		version, err = versions.Get(t.Context(), userID, FieldBoard)
		require.NoError(t, err)
		assert.Equal(t, int64(4), version)
	})

	t.Run("fields are independent", func(t *testing.T) {
		rdb, _ := testutil.StartRedis(t)
		versions := NewVersions(rdb, "ql", "test")

		_, err := versions.Bump(t.Context(), userID, FieldBoard, 1)
		require.NoError(t, err)

		dash, err := versions.Get(t.Context(), userID, FieldDash)
		require.NoError(t, err)
		assert.Equal(t, int64(0), dash, "bumping board must not move dash")
	})

	t.Run("users are independent", func(t *testing.T) {
		rdb, _ := testutil.StartRedis(t)
		versions := NewVersions(rdb, "ql", "test")

		_, err := versions.Bump(t.Context(), userID, FieldBoard, 1)
		require.NoError(t, err)

		other, err := versions.Get(t.Context(), uuid.New(), FieldBoard)
		require.NoError(t, err)
		assert.Equal(t, int64(0), other)
	})

	t.Run("N concurrent bumps add exactly N", func(t *testing.T) {
		rdb, _ := testutil.StartRedis(t)
		versions := NewVersions(rdb, "ql", "test")

		const n = 50

		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = versions.Bump(t.Context(), userID, FieldBoard, 1)
				// Interleave bumps of another field
				_, _ = versions.Bump(t.Context(), userID, FieldDash, 1)
			}()
		}
		wg.Wait()

		version, err := versions.Get(t.Context(), userID, FieldBoard)
		require.NoError(t, err)
		assert.Equal(t, int64(n), version)
	})

	t.Run("store failure maps to ErrStoreUnavailable", func(t *testing.T) {
		rdb, mr := testutil.StartRedis(t)
		versions := NewVersions(rdb, "ql", "test")

		mr.SetError("redis gone")

		_, err := versions.Get(t.Context(), userID, FieldBoard)
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

		_, err = versions.Bump(t.Context(), userID, FieldBoard, 1)
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})
}
