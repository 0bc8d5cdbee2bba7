// Package store holds the pending set: checkout ids still inside their
// dedup window.
package store

import (
	"context"
	"sync"
	"time"
)

// Store is a set of pending checkout ids. Add must be an atomic
// check-and-insert: of two concurrent Adds for the same id, exactly one
// reports true.
//
// Each insertion carries a token. Remove deletes the id only while it still
// holds that token, so a late expiry from an earlier window never evicts
// the entry of a later one.
type Store interface {
	// Add inserts id with token and reports whether it was absent. ttl bounds
	// how long backends with native expiry keep the id.
	Add(ctx context.Context, id, token string, ttl time.Duration) (bool, error)
	// Remove deletes id if it is held by token.
	Remove(ctx context.Context, id, token string) error
	Len(ctx context.Context) (int, error)
}

// MemoryStore keeps ids in process memory. Ids live until Remove; the
// scheduler's expiry task is what bounds their lifetime.
type MemoryStore struct {
	mu  sync.Mutex
	ids map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]string)}
}

func (s *MemoryStore) Add(_ context.Context, id, token string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false, nil
	}
	s.ids[id] = token
	return true, nil
}

func (s *MemoryStore) Remove(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] == token {
		delete(s.ids, id)
	}
	return nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids), nil
}
