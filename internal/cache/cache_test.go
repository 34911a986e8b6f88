package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

var (
	_ ListCache = (*Redis)(nil)
	_ ListCache = Nop{}
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 30*time.Second)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

type row struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

func TestRedis_SetGet(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)

	var got []row
	ok, err := c.Get(ctx, KeyItems, &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, KeyItems, []row{{"a", 1}, {"b", 2}}))
	require.True(t, mr.Exists("stock:list:items"))
	require.Equal(t, 30*time.Second, mr.TTL("stock:list:items"))

	ok, err = c.Get(ctx, KeyItems, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []row{{"a", 1}, {"b", 2}}, got)
}

func TestRedis_Expires(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)

	require.NoError(t, c.Set(ctx, KeyUsage, []row{}))
	mr.FastForward(31 * time.Second)

	var got []row
	ok, err := c.Get(ctx, KeyUsage, &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedis_Invalidate(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)

	require.NoError(t, c.Set(ctx, KeyItems, []row{}))
	require.NoError(t, c.Set(ctx, KeyJobSites, []row{}))
	require.NoError(t, c.Invalidate(ctx, KeyItems, KeyJobSites))
	require.False(t, mr.Exists("stock:list:items"))
	require.False(t, mr.Exists("stock:list:job_sites"))
	require.NoError(t, c.Invalidate(ctx))
}

func TestRedis_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)

	require.NoError(t, mr.Set("stock:list:items", "{not json"))
	var got []row
	_, err := c.Get(ctx, KeyItems, &got)
	require.Error(t, err)
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "http://nope", time.Second)
	require.Error(t, err)
}

func TestNewRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedis(context.Background(), "redis://"+mr.Addr(), 0)
	require.NoError(t, err)
	require.Equal(t, time.Minute, c.ttl)
	require.NoError(t, c.Close())
}
