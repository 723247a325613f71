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

func newTestAdapter(t *testing.T) (RedisAdapter, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFromClient("test", "da:", client), mr
}

func TestRedisAdapter_KeyOperations(t *testing.T) {
	r, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("da:k"), "keys are prefixed")

	got, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	ok, err := r.SetNX(ctx, "k", []byte("other"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := r.Exist(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, r.Del(ctx, "k"))
	_, err = r.Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestRedisAdapter_DelIfValue(t *testing.T) {
	r, mr := newTestAdapter(t)
	ctx := context.Background()

	ok, err := r.SetNX(ctx, "lock", []byte("owner-a"), time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	deleted, err := r.DelIfValue(ctx, "lock", []byte("owner-b"))
	require.NoError(t, err)
	assert.False(t, deleted, "another owner's value is left alone")
	assert.True(t, mr.Exists("da:lock"))

	deleted, err = r.DelIfValue(ctx, "lock", []byte("owner-a"))
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mr.Exists("da:lock"))

	deleted, err = r.DelIfValue(ctx, "lock", []byte("owner-a"))
	require.NoError(t, err)
	assert.False(t, deleted, "missing key")
}

func TestRedisAdapter_Incr(t *testing.T) {
	r, mr := newTestAdapter(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := r.Incr(ctx, "seq")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	require.NoError(t, r.Expire(ctx, "seq", time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("da:seq"))
}

func TestRedisAdapter_Streams(t *testing.T) {
	r, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, r.XGroupCreateMkStream(ctx, "events", "g", "0"))
	_, err := r.XAdd(ctx, "events", 100, map[string]interface{}{"kind": "sales"})
	require.NoError(t, err)

	msgs, err := r.XReadGroup(ctx, "g", "c1", "events", ">", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "sales", msgs[0].Values["kind"])

	pending, err := r.XPendingExt(ctx, "events", "g", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, r.XAck(ctx, "events", "g", msgs[0].ID))
	pending, err = r.XPendingExt(ctx, "events", "g", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err := r.XLen(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
