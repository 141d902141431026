package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, nil), srv
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, srv := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "ladders:dashboard:summary", map[string]int{"active": 3}, time.Minute))

	var got map[string]int
	require.NoError(t, repo.Get(ctx, "ladders:dashboard:summary", &got))
	assert.Equal(t, 3, got["active"])

	srv.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "ladders:dashboard:summary", &got), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDropsUndecodableEntries(t *testing.T) {
	repo, srv := newCacheRepo(t)
	require.NoError(t, srv.Set("ladders:broken", "{not json"))

	var got map[string]int
	err := repo.Get(context.Background(), "ladders:broken", &got)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.False(t, srv.Exists("ladders:broken"))
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, srv := newCacheRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "ladders:dashboard:a", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "ladders:dashboard:b", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "ladders:other", 3, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "ladders:dashboard:*"))

	assert.False(t, srv.Exists("ladders:dashboard:a"))
	assert.False(t, srv.Exists("ladders:dashboard:b"))
	assert.True(t, srv.Exists("ladders:other"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var got int
	assert.ErrorIs(t, repo.Get(ctx, "k", &got), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "*"))
	assert.NoError(t, repo.Ping(ctx))
}
