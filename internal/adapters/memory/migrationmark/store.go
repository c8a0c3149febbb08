package migrationmark

import (
	"context"
	"sync"

	"github.com/cafescout/cafe-scout-api/internal/ports/out/migrationmark"
)

// Store is an in-memory implementation of migrationmark.Store.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	m  map[migrationmark.Key]migrationmark.Record
}

func NewStore() *Store {
	return &Store{m: make(map[migrationmark.Key]migrationmark.Record)}
}

func (s *Store) Get(ctx context.Context, k migrationmark.Key) (migrationmark.Record, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.m[k]
	return rec, ok, nil
}

func (s *Store) Put(ctx context.Context, k migrationmark.Key, rec migrationmark.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = rec
	return nil
}
