// Package contracttest holds port-contract suites shared by every adapter
// implementation. Each Run* function exercises one port through a factory so
// the in-memory and external-store adapters prove the same behavior.
package contracttest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	counterstoreport "github.com/cafescout/cafe-scout-api/internal/ports/out/counterstore"
	interactionrepoport "github.com/cafescout/cafe-scout-api/internal/ports/out/interactionrepo"
	migrationmarkport "github.com/cafescout/cafe-scout-api/internal/ports/out/migrationmark"
	searchrepoport "github.com/cafescout/cafe-scout-api/internal/ports/out/searchrepo"
)

type CleanupFunc = func()

type CounterStoreFactory func(t *testing.T) (counterstoreport.Store, CleanupFunc)
type SearchRepoFactory func(t *testing.T) (searchrepoport.Repository, CleanupFunc)
type InteractionRepoFactory func(t *testing.T) (interactionrepoport.Repository, CleanupFunc)
type MigrationMarkStoreFactory func(t *testing.T) (migrationmarkport.Store, CleanupFunc)

func RunCounterStore(t *testing.T, newStore CounterStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	window := time.Hour

	// Increments up to the limit, then refuses.
	for i := int64(1); i <= 3; i++ {
		c, applied, err := store.CheckAndIncrement(ctx, "k-1", 3, window, now)
		if err != nil {
			t.Fatalf("CheckAndIncrement %d: %v", i, err)
		}
		if !applied || c.Count != i {
			t.Fatalf("call %d: applied=%v count=%d", i, applied, c.Count)
		}
		if !c.WindowStart.Equal(now) {
			t.Fatalf("call %d: windowStart=%v", i, c.WindowStart)
		}
	}
	c, applied, err := store.CheckAndIncrement(ctx, "k-1", 3, window, now)
	if err != nil {
		t.Fatalf("CheckAndIncrement at limit: %v", err)
	}
	if applied || c.Count != 3 {
		t.Fatalf("at limit: applied=%v count=%d", applied, c.Count)
	}

	// A fresh window replaces an elapsed one.
	later := now.Add(window + time.Second)
	c, applied, err = store.CheckAndIncrement(ctx, "k-1", 3, window, later)
	if err != nil {
		t.Fatalf("CheckAndIncrement after expiry: %v", err)
	}
	if !applied || c.Count != 1 || !c.WindowStart.Equal(later) {
		t.Fatalf("after expiry: applied=%v counter=%+v", applied, c)
	}

	// Keys are independent.
	if _, ok, err := store.Get(ctx, "k-2"); err != nil || ok {
		t.Fatalf("Get absent key: ok=%v err=%v", ok, err)
	}

	// Put overwrites; Get returns the stored counter uninterpreted.
	put := counterstoreport.Counter{Count: 9, WindowStart: now}
	if err := store.Put(ctx, "k-1", put); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, "k-1")
	if err != nil || !ok {
		t.Fatalf("Get after Put: ok=%v err=%v", ok, err)
	}
	if got.Count != 9 || !got.WindowStart.Equal(now) {
		t.Fatalf("got=%+v", got)
	}

	if err := store.Delete(ctx, "k-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := store.Get(ctx, "k-1"); err != nil || ok {
		t.Fatalf("Get after Delete: ok=%v err=%v", ok, err)
	}
}

// RunCounterStoreAtomicity races many callers at a nearly-full counter and
// requires that the conditional increment admits exactly the remaining slots.
func RunCounterStoreAtomicity(t *testing.T, newStore CounterStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	const limit = 5

	var wg sync.WaitGroup
	applied := make([]bool, 20)
	for i := range applied {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := store.CheckAndIncrement(ctx, "k-race", limit, time.Hour, now)
			if err != nil {
				t.Errorf("CheckAndIncrement: %v", err)
				return
			}
			applied[i] = ok
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, ok := range applied {
		if ok {
			wins++
		}
	}
	if wins != limit {
		t.Fatalf("applied=%d, want %d", wins, limit)
	}
}

func RunSearchRepo(t *testing.T, newRepo SearchRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	rec := searchrepoport.Search{
		Identity: "user:u1",
		ID:       "s-1",
		Params: domain.SearchParams{
			OriginPlaces: []domain.OriginPlace{{ID: "p1", Name: "Blue Bottle"}},
			Destination:  "Lisbon",
			Vibes:        []string{"cozy"},
			FreeText:     "good espresso",
		},
		Status:    domain.SearchStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, rec); !errors.Is(err, searchrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create: %v", err)
	}

	got, err := repo.Get(ctx, "user:u1", "s-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.SearchStatusPending || got.Params.Destination != "Lisbon" {
		t.Fatalf("got=%+v", got)
	}
	if len(got.Params.OriginPlaces) != 1 || got.Params.OriginPlaces[0].ID != "p1" {
		t.Fatalf("originPlaces=%v", got.Params.OriginPlaces)
	}

	// (identity, id) is the key: same id under another identity is absent.
	if _, err := repo.Get(ctx, "user:u2", "s-1"); !errors.Is(err, searchrepoport.ErrNotFound) {
		t.Fatalf("Get other identity: %v", err)
	}

	// Save overwrites the full record.
	rec.Status = domain.SearchStatusSuccess
	rec.Results = json.RawMessage(`[{"id":"c1"}]`)
	rec.HasMorePages = true
	rec.NextPageToken = "page-2"
	rec.UpdatedAt = now.Add(time.Minute)
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = repo.Get(ctx, "user:u1", "s-1")
	if err != nil {
		t.Fatalf("Get after Save: %v", err)
	}
	if got.Status != domain.SearchStatusSuccess || string(got.Results) != `[{"id":"c1"}]` || got.NextPageToken != "page-2" {
		t.Fatalf("got=%+v", got)
	}

	if _, err := repo.Get(ctx, "user:u1", "missing"); !errors.Is(err, searchrepoport.ErrNotFound) {
		t.Fatalf("Get missing: %v", err)
	}
}

func RunInteractionRepo(t *testing.T, newRepo InteractionRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	sc := domain.SearchContext{Destination: "Lisbon", Vibes: []string{"cozy"}}
	fp := sc.Fingerprint()

	mk := func(identity domain.Identity, place domain.PlaceID, saved bool) interactionrepoport.Interaction {
		in := interactionrepoport.Interaction{
			Identity:           identity,
			PlaceID:            place,
			ContextFingerprint: fp,
			PlaceName:          "Cafe " + string(place),
			Context:            sc,
			Viewed:             true,
			Saved:              saved,
			ViewedAt:           now,
			UpdatedAt:          now,
		}
		if saved {
			at := now
			in.SavedAt = &at
		}
		return in
	}

	for _, in := range []interactionrepoport.Interaction{
		mk("user:u1", "c1", false),
		mk("user:u1", "c2", true),
		mk("user:u2", "c1", false),
	} {
		if err := repo.Put(ctx, in); err != nil {
			t.Fatalf("Put %s/%s: %v", in.Identity, in.PlaceID, err)
		}
	}

	got, err := repo.Get(ctx, "user:u1", "c2", fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Saved || got.SavedAt == nil || got.PlaceName != "Cafe c2" {
		t.Fatalf("got=%+v", got)
	}

	if _, err := repo.Get(ctx, "user:u1", "c9", fp); !errors.Is(err, interactionrepoport.ErrNotFound) {
		t.Fatalf("Get missing: %v", err)
	}

	// Context listing is identity-scoped and deterministic.
	list, err := repo.ListByContext(ctx, "user:u1", fp)
	if err != nil {
		t.Fatalf("ListByContext: %v", err)
	}
	if len(list) != 2 || list[0].PlaceID != "c1" || list[1].PlaceID != "c2" {
		t.Fatalf("list=%v", list)
	}

	// A different fingerprint is a different bucket.
	other := sc
	other.Destination = "Porto"
	if list, err := repo.ListByContext(ctx, "user:u1", other.Fingerprint()); err != nil || len(list) != 0 {
		t.Fatalf("other context: list=%v err=%v", list, err)
	}

	all, err := repo.ListByIdentity(ctx, "user:u1")
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByIdentity: list=%v err=%v", all, err)
	}

	// Put overwrites in place.
	upd := mk("user:u1", "c1", false)
	upd.Saved = true
	at := now.Add(time.Minute)
	upd.SavedAt = &at
	if err := repo.Put(ctx, upd); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err = repo.Get(ctx, "user:u1", "c1", fp)
	if err != nil || !got.Saved {
		t.Fatalf("after overwrite: got=%+v err=%v", got, err)
	}

	if err := repo.Delete(ctx, "user:u1", "c1", fp); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "user:u1", "c1", fp); !errors.Is(err, interactionrepoport.ErrNotFound) {
		t.Fatalf("Get after Delete: %v", err)
	}
}

func RunMigrationMarkStore(t *testing.T, newStore MigrationMarkStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	key := migrationmarkport.Key{From: "ip:abc", To: "user:u1"}
	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get absent: ok=%v err=%v", ok, err)
	}

	rec := migrationmarkport.Record{MigratedCount: 4, CompletedAt: time.Unix(2000, 0).UTC()}
	if err := store.Put(ctx, key, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.MigratedCount != 4 || !got.CompletedAt.Equal(rec.CompletedAt) {
		t.Fatalf("got=%+v", got)
	}

	// The marker is directional.
	if _, ok, err := store.Get(ctx, migrationmarkport.Key{From: "user:u1", To: "ip:abc"}); err != nil || ok {
		t.Fatalf("reversed key: ok=%v err=%v", ok, err)
	}
}
