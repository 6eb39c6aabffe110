package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"social-go/internal/presence"
)

var _ presence.Set = (*PresenceSet)(nil)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestPresenceSetReportsZeroCrossings(t *testing.T) {
	_, client := newTestClient(t)
	set := NewPresenceSet(client, "test:")
	ctx := context.Background()

	before, err := set.Add(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Zero(t, before)

	before, err = set.Add(ctx, "u1", "c2")
	require.NoError(t, err)
	require.EqualValues(t, 1, before)

	removed, after, err := set.Remove(ctx, "u1", "c1")
	require.NoError(t, err)
	require.True(t, removed)
	require.EqualValues(t, 1, after)

	removed, after, err = set.Remove(ctx, "u1", "c2")
	require.NoError(t, err)
	require.True(t, removed)
	require.Zero(t, after)

	removed, after, err = set.Remove(ctx, "u1", "c2")
	require.NoError(t, err)
	require.False(t, removed, "already gone")
	require.Zero(t, after)
}

func TestPresenceSetConcurrentConnections(t *testing.T) {
	_, client := newTestClient(t)
	set := NewPresenceSet(client, "test:")
	ctx := context.Background()

	const n = 20
	var online, offline atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := string(rune('a' + i))
			if before, err := set.Add(ctx, "u1", conn); err == nil && before == 0 {
				online.Add(1)
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := string(rune('a' + i))
			if removed, after, err := set.Remove(ctx, "u1", conn); err == nil && removed && after == 0 {
				offline.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, online.Load())
	require.EqualValues(t, 1, offline.Load())
}

func TestTokenBlacklist(t *testing.T) {
	mr, client := newTestClient(t)
	bl := NewRedisTokenBlacklist(client, "test:")
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, bl.Add(ctx, "jti-old", time.Now().Add(-time.Minute)))

	revoked, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = bl.IsBlacklisted(ctx, "jti-old")
	require.NoError(t, err)
	require.False(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)
}
