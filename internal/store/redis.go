package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// removeIfHeld deletes KEYS[1] only when its value is ARGV[1].
var removeIfHeld = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore shares the pending set between instances. Keys are written
// with SET NX PX so Redis expires them on its own as well.
//
// Unlike MemoryStore, ids outlive a process restart: they are forgotten
// only when their TTL runs out or their expiry task removes them.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Add(ctx context.Context, id, token string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(id), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", id, err)
	}
	return ok, nil
}

func (s *RedisStore) Remove(ctx context.Context, id, token string) error {
	if err := removeIfHeld.Run(ctx, s.client, []string{s.key(id)}, token).Err(); err != nil {
		return fmt.Errorf("redis remove %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan %s*: %w", s.prefix, err)
	}
	return n, nil
}
