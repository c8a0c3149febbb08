package searchrepo

import (
	"context"
	"sync"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/searchrepo"
)

type key struct {
	identity domain.Identity
	id       domain.SearchID
}

// Repo is an in-memory implementation of searchrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu    sync.RWMutex
	byKey map[key]searchrepo.Search
}

func NewRepo() *Repo {
	return &Repo{byKey: make(map[key]searchrepo.Search)}
}

func (r *Repo) Create(ctx context.Context, s searchrepo.Search) error {
	_ = ctx
	if s.ID == "" || s.Identity == "" {
		return searchrepo.ErrAlreadyExists // treat an empty key as invalid
	}
	k := key{identity: s.Identity, id: s.ID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[k]; ok {
		return searchrepo.ErrAlreadyExists
	}
	r.byKey[k] = cloneSearch(s)
	return nil
}

func (r *Repo) Save(ctx context.Context, s searchrepo.Search) error {
	_ = ctx
	if s.ID == "" || s.Identity == "" {
		return searchrepo.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[key{identity: s.Identity, id: s.ID}] = cloneSearch(s)
	return nil
}

func (r *Repo) Get(ctx context.Context, identity domain.Identity, id domain.SearchID) (searchrepo.Search, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byKey[key{identity: identity, id: id}]
	if !ok {
		return searchrepo.Search{}, searchrepo.ErrNotFound
	}
	return cloneSearch(s), nil
}

func cloneSearch(s searchrepo.Search) searchrepo.Search {
	cp := s
	if s.Params.OriginPlaces != nil {
		cp.Params.OriginPlaces = append([]domain.OriginPlace(nil), s.Params.OriginPlaces...)
	}
	if s.Params.Vibes != nil {
		cp.Params.Vibes = append([]string(nil), s.Params.Vibes...)
	}
	if s.Results != nil {
		cp.Results = append([]byte(nil), s.Results...)
	}
	if s.AllResults != nil {
		cp.AllResults = append([]byte(nil), s.AllResults...)
	}
	return cp
}
