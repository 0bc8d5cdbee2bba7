package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "pending:"), mr
}

func stores(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

// has reports whether id is present without touching it.
func has(t *testing.T, s Store, id string) bool {
	t.Helper()
	switch s := s.(type) {
	case *MemoryStore:
		s.mu.Lock()
		defer s.mu.Unlock()
		_, ok := s.ids[id]
		return ok
	case *RedisStore:
		n, err := s.client.Exists(context.Background(), s.key(id)).Result()
		require.NoError(t, err)
		return n == 1
	}
	t.Fatalf("unknown store %T", s)
	return false
}

func TestStore_AddIsCheckAndInsert(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			added, err := s.Add(ctx, "abc123", "t1", time.Hour)
			require.NoError(t, err)
			assert.True(t, added)

			added, err = s.Add(ctx, "abc123", "t2", time.Hour)
			require.NoError(t, err)
			assert.False(t, added)
			assert.True(t, has(t, s, "abc123"))

			n, err := s.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Add(ctx, "abc123", "t1", time.Hour)
			require.NoError(t, err)
			require.NoError(t, s.Remove(ctx, "abc123", "t1"))
			assert.False(t, has(t, s, "abc123"))

			added, err := s.Add(ctx, "abc123", "t2", time.Hour)
			require.NoError(t, err)
			assert.True(t, added)

			assert.NoError(t, s.Remove(ctx, "never-added", "t1"))
		})
	}
}

func TestStore_RemoveWithStaleTokenKeepsEntry(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Add(ctx, "abc123", "current", time.Hour)
			require.NoError(t, err)

			require.NoError(t, s.Remove(ctx, "abc123", "previous"))
			assert.True(t, has(t, s, "abc123"))

			added, err := s.Add(ctx, "abc123", "next", time.Hour)
			require.NoError(t, err)
			assert.False(t, added)
		})
	}
}

func TestStore_ConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if ok, err := s.Add(ctx, "same", "t", time.Hour); err == nil && ok {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), wins.Load())
		})
	}
}

func TestRedisStore_NativeExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	_, err := s.Add(ctx, "abc123", "t1", 12*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, mr.TTL("pending:abc123"))

	mr.FastForward(12 * time.Hour)
	assert.False(t, has(t, s, "abc123"))
}

func TestRedisStore_LenIgnoresOtherKeys(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	require.NoError(t, mr.Set("unrelated", "x"))

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Add(ctx, id, "t", time.Hour)
		require.NoError(t, err)
	}
	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
