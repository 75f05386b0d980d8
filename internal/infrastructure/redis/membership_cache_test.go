package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, ttl time.Duration) (*MembershipCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewMembershipCache(client, "test", ttl), mr
}

func TestMembershipCache_Miss(t *testing.T) {
	cache, _ := newCache(t, time.Minute)

	ids, ok, err := cache.Get(context.Background(), "grp_1", "v1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ids)
}

func TestMembershipCache_SetGet(t *testing.T) {
	cache, mr := newCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "grp_1", "v1", []string{"cus_1", "cus_2"}))
	assert.True(t, mr.Exists("test:group:grp_1:members"))

	ids, ok, err := cache.Get(ctx, "grp_1", "v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"cus_1", "cus_2"}, ids)
}

func TestMembershipCache_EmptyMembershipIsAHit(t *testing.T) {
	cache, _ := newCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "grp_1", "v1", nil))
	ids, ok, err := cache.Get(ctx, "grp_1", "v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, ids)
}

func TestMembershipCache_Invalidate(t *testing.T) {
	cache, _ := newCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "grp_1", "v1", []string{"cus_1"}))
	require.NoError(t, cache.Invalidate(ctx, "grp_1"))

	_, ok, err := cache.Get(ctx, "grp_1", "v1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Invalidating a missing key is not an error.
	require.NoError(t, cache.Invalidate(ctx, "grp_404"))
}

func TestMembershipCache_Expires(t *testing.T) {
	cache, mr := newCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "grp_1", "v1", []string{"cus_1"}))
	mr.FastForward(31 * time.Second)

	_, ok, err := cache.Get(ctx, "grp_1", "v1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMembershipCache_OtherVersionIsAMiss(t *testing.T) {
	cache, _ := newCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "grp_1", "v1", []string{"cus_1"}))

	ids, ok, err := cache.Get(ctx, "grp_1", "v2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ids)

	// A newer write replaces the older entry.
	require.NoError(t, cache.Set(ctx, "grp_1", "v2", []string{"cus_5"}))
	ids, ok, err = cache.Get(ctx, "grp_1", "v2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"cus_5"}, ids)
}

func TestMembershipCache_CorruptValue(t *testing.T) {
	cache, mr := newCache(t, time.Minute)
	require.NoError(t, mr.Set("test:group:grp_1:members", "not-json"))

	_, _, err := cache.Get(context.Background(), "grp_1", "v1")
	assert.Error(t, err)
}
