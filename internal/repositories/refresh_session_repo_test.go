package repositories

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BradenHooton/authgate/internal/metrics"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRefreshRepo(t *testing.T) (*RefreshSessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewRefreshSessionRepository(client, "authgate:", time.Hour, 200*time.Millisecond, metrics.Noop{}, logger)
	return repo, mr
}

func TestRefreshSessionRepository_InsertAndValidate(t *testing.T) {
	repo, mr := newTestRefreshRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "42", "token-a"))

	stored, err := mr.Get("authgate:user-42")
	require.NoError(t, err)
	assert.Equal(t, "token-a", stored)
	assert.Equal(t, time.Hour, mr.TTL("authgate:user-42"))

	ok, err := repo.Validate(ctx, "42", "token-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Validate(ctx, "42", "token-b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshSessionRepository_InsertOverwrites(t *testing.T) {
	repo, _ := newTestRefreshRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "42", "token-a"))
	require.NoError(t, repo.Insert(ctx, "42", "token-b"))

	ok, err := repo.Validate(ctx, "42", "token-a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Validate(ctx, "42", "token-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefreshSessionRepository_ValidateAbsent(t *testing.T) {
	repo, _ := newTestRefreshRepo(t)

	ok, err := repo.Validate(context.Background(), "nobody", "token-a")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshSessionRepository_Expiry(t *testing.T) {
	repo, mr := newTestRefreshRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "42", "token-a"))
	mr.FastForward(time.Hour + time.Second)

	ok, err := repo.Validate(ctx, "42", "token-a")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshSessionRepository_Invalidate(t *testing.T) {
	repo, mr := newTestRefreshRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "42", "token-a"))
	require.NoError(t, repo.Invalidate(ctx, "42"))
	assert.False(t, mr.Exists("authgate:user-42"))

	ok, err := repo.Validate(ctx, "42", "token-a")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, repo.Invalidate(ctx, "42"))
}

func TestRefreshSessionRepository_UsersAreIsolated(t *testing.T) {
	repo, _ := newTestRefreshRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "1", "token-a"))
	require.NoError(t, repo.Insert(ctx, "2", "token-b"))
	require.NoError(t, repo.Invalidate(ctx, "1"))

	ok, err := repo.Validate(ctx, "2", "token-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefreshSessionRepository_StoreUnavailable(t *testing.T) {
	repo, mr := newTestRefreshRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, "42", "token-a"))

	mr.SetError("LOADING server is loading")

	ok, err := repo.Validate(ctx, "42", "token-a")
	assert.False(t, ok)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)

	assert.ErrorIs(t, repo.Insert(ctx, "42", "token-b"), models.ErrStoreUnavailable)
	assert.ErrorIs(t, repo.Invalidate(ctx, "42"), models.ErrStoreUnavailable)
	assert.ErrorIs(t, repo.Ping(ctx), models.ErrStoreUnavailable)
}

func TestRefreshSessionRepository_ServerGone(t *testing.T) {
	repo, mr := newTestRefreshRepo(t)
	mr.Close()

	ok, err := repo.Validate(context.Background(), "42", "token-a")
	assert.False(t, ok)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}
