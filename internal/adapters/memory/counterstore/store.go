package counterstore

import (
	"context"
	"sync"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/ports/out/counterstore"
)

// Store is an in-memory implementation of counterstore.Store.
// It is safe for concurrent use; the mutex makes CheckAndIncrement a single
// operation per call.
type Store struct {
	mu sync.Mutex
	m  map[string]counterstore.Counter
}

func NewStore() *Store {
	return &Store{m: make(map[string]counterstore.Counter)}
}

func (s *Store) CheckAndIncrement(ctx context.Context, key string, limit int64, window time.Duration, now time.Time) (counterstore.Counter, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.m[key]
	if !c.Active(now, window) {
		c = counterstore.Counter{Count: 0, WindowStart: now}
	}
	if c.Count >= limit {
		s.m[key] = c
		return c, false, nil
	}
	c.Count++
	s.m[key] = c
	return c, true, nil
}

func (s *Store) Get(ctx context.Context, key string) (counterstore.Counter, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.m[key]
	return c, ok, nil
}

func (s *Store) Put(ctx context.Context, key string, c counterstore.Counter) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = c
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
