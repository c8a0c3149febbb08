package interactionrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/interactionrepo"
)

type key struct {
	identity    domain.Identity
	placeID     domain.PlaceID
	fingerprint string
}

// Repo is an in-memory implementation of interactionrepo.Repository.
// It is safe for concurrent use. List results are ordered by place id to keep
// behavior deterministic.
type Repo struct {
	mu    sync.RWMutex
	byKey map[key]interactionrepo.Interaction
}

func NewRepo() *Repo {
	return &Repo{byKey: make(map[key]interactionrepo.Interaction)}
}

func (r *Repo) Get(ctx context.Context, identity domain.Identity, placeID domain.PlaceID, fingerprint string) (interactionrepo.Interaction, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.byKey[key{identity: identity, placeID: placeID, fingerprint: fingerprint}]
	if !ok {
		return interactionrepo.Interaction{}, interactionrepo.ErrNotFound
	}
	return cloneInteraction(in), nil
}

func (r *Repo) Put(ctx context.Context, in interactionrepo.Interaction) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[key{identity: in.Identity, placeID: in.PlaceID, fingerprint: in.ContextFingerprint}] = cloneInteraction(in)
	return nil
}

func (r *Repo) Delete(ctx context.Context, identity domain.Identity, placeID domain.PlaceID, fingerprint string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byKey, key{identity: identity, placeID: placeID, fingerprint: fingerprint})
	return nil
}

func (r *Repo) ListByContext(ctx context.Context, identity domain.Identity, fingerprint string) ([]interactionrepo.Interaction, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]interactionrepo.Interaction, 0)
	for k, in := range r.byKey {
		if k.identity == identity && k.fingerprint == fingerprint {
			out = append(out, cloneInteraction(in))
		}
	}
	sortInteractions(out)
	return out, nil
}

func (r *Repo) ListByIdentity(ctx context.Context, identity domain.Identity) ([]interactionrepo.Interaction, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]interactionrepo.Interaction, 0)
	for k, in := range r.byKey {
		if k.identity == identity {
			out = append(out, cloneInteraction(in))
		}
	}
	sortInteractions(out)
	return out, nil
}

func sortInteractions(ins []interactionrepo.Interaction) {
	sort.Slice(ins, func(i, j int) bool {
		if ins[i].PlaceID != ins[j].PlaceID {
			return ins[i].PlaceID < ins[j].PlaceID
		}
		return ins[i].ContextFingerprint < ins[j].ContextFingerprint
	})
}

func cloneInteraction(in interactionrepo.Interaction) interactionrepo.Interaction {
	cp := in
	if in.Context.Vibes != nil {
		cp.Context.Vibes = append([]string(nil), in.Context.Vibes...)
	}
	if in.Context.OriginPlaceIDs != nil {
		cp.Context.OriginPlaceIDs = append([]string(nil), in.Context.OriginPlaceIDs...)
	}
	if in.SavedAt != nil {
		t := *in.SavedAt
		cp.SavedAt = &t
	}
	return cp
}
