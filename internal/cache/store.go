package cache

import (
	"context"
	"time"

	"budget/internal/store"
)

// Store is a read-through, write-through cache in front of another Store.
// Missing keys are not cached.
type Store struct {
	next  store.Store
	slots *LRUCache[string]
}

var _ store.Store = (*Store)(nil)

func NewStore(next store.Store, maxSize int, ttl time.Duration) *Store {
	return &Store{next: next, slots: NewLRUCache[string](maxSize, ttl)}
}

// Cleaner exposes the underlying cache for a Manager.
func (s *Store) Cleaner() Cleaner {
	return s.slots
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := s.slots.Get(key); ok {
		return v, true, nil
	}
	v, ok, err := s.next.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	s.slots.Set(key, v)
	return v, true, nil
}

// Set writes to the backing store first; the cache only changes on success.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.next.Set(ctx, key, value); err != nil {
		s.slots.Delete(key)
		return err
	}
	s.slots.Set(key, value)
	return nil
}

// Close closes the backing store when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.next.(store.Closer); ok {
		return c.Close()
	}
	return nil
}
