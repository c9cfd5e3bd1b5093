package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// Store is an in-process Store. It is what tests inject and what the
// memory backend serves.
type Store struct {
	mu    sync.Mutex
	slots map[string]string
}

func New() *Store {
	return &Store{slots: map[string]string{}}
}

// NewFromFiles seeds key from <base>/<key>.json when that file exists.
func NewFromFiles(base, key string) *Store {
	s := New()
	b, err := os.ReadFile(filepath.Join(base, key+".json"))
	if err != nil {
		return s
	}
	s.slots[key] = string(b)
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[key]
	return v, ok, nil
}

// Set overwrites the value stored under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return nil
}
