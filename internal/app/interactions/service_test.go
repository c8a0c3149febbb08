package interactions_test

import (
	"context"
	"errors"
	"testing"

	meminteractionrepo "github.com/cafescout/cafe-scout-api/internal/adapters/memory/interactionrepo"
	memmigrationmark "github.com/cafescout/cafe-scout-api/internal/adapters/memory/migrationmark"
	"github.com/cafescout/cafe-scout-api/internal/app/interactions"
	"github.com/cafescout/cafe-scout-api/internal/domain"
)

type fakeMerger struct {
	calls []string
	err   error
}

func (f *fakeMerger) MergeAnonymous(_ context.Context, rawAddress string, user domain.Identity) error {
	f.calls = append(f.calls, rawAddress+"->"+string(user))
	return f.err
}

func newService(merger *fakeMerger) (*interactions.Service, *meminteractionrepo.Repo) {
	repo := meminteractionrepo.NewRepo()
	return interactions.NewService(repo, memmigrationmark.NewStore(), merger), repo
}

func testContext() domain.SearchContext {
	return domain.SearchContext{
		Destination:    "Lisbon",
		Vibes:          []string{"cozy", "quiet"},
		OriginPlaceIDs: []string{"p0"},
	}
}

func appErr(t *testing.T, err error) *interactions.Error {
	t.Helper()
	var ae *interactions.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *interactions.Error, got %v", err)
	}
	return ae
}

func TestService_Record_View(t *testing.T) {
	t.Parallel()

	svc, _ := newService(&fakeMerger{})

	rec, err := svc.Record(context.Background(), "user:u1", interactions.RecordInput{
		Action:    interactions.ActionView,
		PlaceID:   "c1",
		PlaceName: "Fabrica",
		Context:   testContext(),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !rec.Viewed || rec.Saved {
		t.Fatalf("rec=%+v", rec)
	}
	if rec.ViewedAt.IsZero() || rec.SavedAt != nil {
		t.Fatalf("timestamps=%v/%v", rec.ViewedAt, rec.SavedAt)
	}
	if rec.ContextFingerprint != testContext().Fingerprint() {
		t.Fatalf("fingerprint=%q", rec.ContextFingerprint)
	}
}

func TestService_Record_SaveImpliesView(t *testing.T) {
	t.Parallel()

	svc, _ := newService(&fakeMerger{})

	rec, err := svc.Record(context.Background(), "user:u1", interactions.RecordInput{
		Action:  interactions.ActionSave,
		PlaceID: "c1",
		Context: testContext(),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !rec.Viewed || !rec.Saved || rec.SavedAt == nil {
		t.Fatalf("rec=%+v", rec)
	}
}

func TestService_Record_UnsaveClearsSaved(t *testing.T) {
	t.Parallel()

	svc, _ := newService(&fakeMerger{})

	in := interactions.RecordInput{Action: interactions.ActionSave, PlaceID: "c1", Context: testContext()}
	if _, err := svc.Record(context.Background(), "user:u1", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	in.Action = interactions.ActionUnsave
	rec, err := svc.Record(context.Background(), "user:u1", in)
	if err != nil {
		t.Fatalf("unsave: %v", err)
	}
	if !rec.Viewed || rec.Saved || rec.SavedAt != nil {
		t.Fatalf("rec=%+v", rec)
	}
}

func TestService_Record_UnsaveWithoutRecord(t *testing.T) {
	t.Parallel()

	svc, _ := newService(&fakeMerger{})

	_, err := svc.Record(context.Background(), "user:u1", interactions.RecordInput{
		Action:  interactions.ActionUnsave,
		PlaceID: "c1",
		Context: testContext(),
	})
	if ae := appErr(t, err); ae.Status != 404 || ae.Code != "INTERACTION_NOT_FOUND" {
		t.Fatalf("err=%+v", ae)
	}
}

func TestService_Record_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(&fakeMerger{})

	_, err := svc.Record(context.Background(), "user:u1", interactions.RecordInput{Action: "bookmark", PlaceID: " "})
	ae := appErr(t, err)
	if ae.Status != 422 || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("err=%+v", ae)
	}
	if _, ok := ae.Details["action"]; !ok {
		t.Fatalf("details=%v", ae.Details)
	}
	if _, ok := ae.Details["placeId"]; !ok {
		t.Fatalf("details=%v", ae.Details)
	}
}

func TestService_SeenButUnsaved(t *testing.T) {
	t.Parallel()

	svc, _ := newService(&fakeMerger{})
	ctx := context.Background()
	sc := testContext()

	record := func(action interactions.Action, place domain.PlaceID) {
		t.Helper()
		if _, err := svc.Record(ctx, "user:u1", interactions.RecordInput{Action: action, PlaceID: place, Context: sc}); err != nil {
			t.Fatalf("record %s %s: %v", action, place, err)
		}
	}

	record(interactions.ActionView, "c1")
	record(interactions.ActionView, "c2")
	record(interactions.ActionSave, "c2") // saved, must not be penalized
	record(interactions.ActionView, "c3")

	// Same place viewed under another context must not leak in.
	other := sc
	other.Destination = "Porto"
	if _, err := svc.Record(ctx, "user:u1", interactions.RecordInput{Action: interactions.ActionView, PlaceID: "c9", Context: other}); err != nil {
		t.Fatalf("record other context: %v", err)
	}

	ids, err := svc.SeenButUnsaved(ctx, "user:u1", sc)
	if err != nil {
		t.Fatalf("SeenButUnsaved: %v", err)
	}
	if len(ids) != 2 || ids[0] != "c1" || ids[1] != "c3" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestService_SeenButUnsaved_ContextOrderInsensitive(t *testing.T) {
	t.Parallel()

	svc, _ := newService(&fakeMerger{})
	ctx := context.Background()

	if _, err := svc.Record(ctx, "user:u1", interactions.RecordInput{
		Action:  interactions.ActionView,
		PlaceID: "c1",
		Context: domain.SearchContext{Destination: "Lisbon", Vibes: []string{"Quiet", "cozy"}},
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	ids, err := svc.SeenButUnsaved(ctx, "user:u1", domain.SearchContext{Destination: " lisbon ", Vibes: []string{"cozy", "quiet"}})
	if err != nil {
		t.Fatalf("SeenButUnsaved: %v", err)
	}
	if len(ids) != 1 || ids[0] != "c1" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestService_Migrate_RekeysAndMergesQuota(t *testing.T) {
	t.Parallel()

	merger := &fakeMerger{}
	svc, repo := newService(merger)
	ctx := context.Background()

	anon := domain.AnonymousIdentity("203.0.113.7", "salt")
	sc := testContext()
	for _, p := range []domain.PlaceID{"c1", "c2"} {
		if _, err := svc.Record(ctx, anon, interactions.RecordInput{Action: interactions.ActionView, PlaceID: p, Context: sc}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	res, err := svc.Migrate(ctx, anon, "user:u1", "203.0.113.7")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if res.MigratedCount != 2 || res.AlreadyMigrated || len(res.Errors) != 0 {
		t.Fatalf("res=%+v", res)
	}
	if len(merger.calls) != 1 || merger.calls[0] != "203.0.113.7->user:u1" {
		t.Fatalf("merger calls=%v", merger.calls)
	}

	// Records now live under the user identity only.
	if left, err := repo.ListByIdentity(ctx, anon); err != nil || len(left) != 0 {
		t.Fatalf("anon leftovers=%v err=%v", left, err)
	}
	moved, err := repo.ListByIdentity(ctx, "user:u1")
	if err != nil || len(moved) != 2 {
		t.Fatalf("moved=%v err=%v", moved, err)
	}
	for _, m := range moved {
		if m.Identity != "user:u1" {
			t.Fatalf("identity=%s", m.Identity)
		}
	}
}

func TestService_Migrate_SecondRunIsNoOp(t *testing.T) {
	t.Parallel()

	merger := &fakeMerger{}
	svc, _ := newService(merger)
	ctx := context.Background()

	anon := domain.AnonymousIdentity("203.0.113.7", "salt")
	if _, err := svc.Record(ctx, anon, interactions.RecordInput{Action: interactions.ActionView, PlaceID: "c1", Context: testContext()}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if _, err := svc.Migrate(ctx, anon, "user:u1", "203.0.113.7"); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	res, err := svc.Migrate(ctx, anon, "user:u1", "203.0.113.7")
	if err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if !res.AlreadyMigrated || res.MigratedCount != 1 {
		t.Fatalf("res=%+v", res)
	}
	if len(merger.calls) != 1 {
		t.Fatalf("merger ran again: %v", merger.calls)
	}
}

func TestService_Migrate_MergesWithExistingUserRecord(t *testing.T) {
	t.Parallel()

	svc, repo := newService(&fakeMerger{})
	ctx := context.Background()

	anon := domain.AnonymousIdentity("203.0.113.7", "salt")
	sc := testContext()
	// Anonymous: saved. Authenticated: had only viewed the same place.
	if _, err := svc.Record(ctx, anon, interactions.RecordInput{Action: interactions.ActionSave, PlaceID: "c1", Context: sc}); err != nil {
		t.Fatalf("record anon: %v", err)
	}
	if _, err := svc.Record(ctx, "user:u1", interactions.RecordInput{Action: interactions.ActionView, PlaceID: "c1", Context: sc}); err != nil {
		t.Fatalf("record user: %v", err)
	}

	if _, err := svc.Migrate(ctx, anon, "user:u1", "203.0.113.7"); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	rec, err := repo.Get(ctx, "user:u1", "c1", sc.Fingerprint())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !rec.Viewed || !rec.Saved || rec.SavedAt == nil {
		t.Fatalf("rec=%+v", rec)
	}
}

func TestService_Migrate_CollectsQuotaMergeError(t *testing.T) {
	t.Parallel()

	merger := &fakeMerger{err: errors.New("store down")}
	svc, _ := newService(merger)
	ctx := context.Background()

	anon := domain.AnonymousIdentity("203.0.113.7", "salt")
	if _, err := svc.Record(ctx, anon, interactions.RecordInput{Action: interactions.ActionView, PlaceID: "c1", Context: testContext()}); err != nil {
		t.Fatalf("record: %v", err)
	}

	res, err := svc.Migrate(ctx, anon, "user:u1", "203.0.113.7")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if res.MigratedCount != 1 || len(res.Errors) != 1 {
		t.Fatalf("res=%+v", res)
	}
}

func TestService_Migrate_RequiresAuthenticatedTarget(t *testing.T) {
	t.Parallel()

	svc, _ := newService(&fakeMerger{})

	anon := domain.AnonymousIdentity("203.0.113.7", "salt")
	_, err := svc.Migrate(context.Background(), anon, anon, "203.0.113.7")
	if ae := appErr(t, err); ae.Status != 422 {
		t.Fatalf("err=%+v", ae)
	}
}
