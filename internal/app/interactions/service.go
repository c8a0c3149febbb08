package interactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/platform/metrics"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/interactionrepo"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/migrationmark"
)

// RateLimitMerger folds an address-keyed quota into a user identity. The rate
// limiter implements it; migration uses it so signing in does not reset a
// caller's window.
type RateLimitMerger interface {
	MergeAnonymous(ctx context.Context, rawAddress string, user domain.Identity) error
}

// Service records view/save/unsave interactions with places and migrates
// anonymous interaction history to an authenticated identity at login.
type Service struct {
	interactions interactionrepo.Repository
	marks        migrationmark.Store
	limiter      RateLimitMerger
}

func NewService(interactionsRepo interactionrepo.Repository, marksStore migrationmark.Store, limiter RateLimitMerger) *Service {
	return &Service{
		interactions: interactionsRepo,
		marks:        marksStore,
		limiter:      limiter,
	}
}

func (s *Service) Record(ctx context.Context, identity domain.Identity, in RecordInput) (interactionrepo.Interaction, error) {
	details := map[string]any{}
	if !validAction(in.Action) {
		details["action"] = "must be one of view, save, unsave"
	}
	if strings.TrimSpace(string(in.PlaceID)) == "" {
		details["placeId"] = "must be non-empty"
	}
	if len(details) > 0 {
		return interactionrepo.Interaction{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid interaction", Details: details}
	}

	fp := in.Context.Fingerprint()
	now := time.Now().UTC()

	rec, err := s.interactions.Get(ctx, identity, in.PlaceID, fp)
	switch {
	case err == nil:
	case errors.Is(err, interactionrepo.ErrNotFound):
		if in.Action == ActionUnsave {
			return interactionrepo.Interaction{}, &Error{Status: 404, Code: "INTERACTION_NOT_FOUND", Message: "no interaction to unsave"}
		}
		rec = interactionrepo.Interaction{
			Identity:           identity,
			PlaceID:            in.PlaceID,
			ContextFingerprint: fp,
			PlaceName:          in.PlaceName,
			Context:            in.Context,
			ViewedAt:           now,
		}
	default:
		return interactionrepo.Interaction{}, err
	}

	switch in.Action {
	case ActionView:
		rec.Viewed = true
	case ActionSave:
		// Saving implies the place was seen.
		rec.Viewed = true
		rec.Saved = true
		t := now
		rec.SavedAt = &t
	case ActionUnsave:
		rec.Saved = false
		rec.SavedAt = nil
	}
	if in.PlaceName != "" {
		rec.PlaceName = in.PlaceName
	}
	rec.UpdatedAt = now

	if err := s.interactions.Put(ctx, rec); err != nil {
		return interactionrepo.Interaction{}, err
	}
	return rec, nil
}

// SeenButUnsaved returns the place ids a caller viewed in this search context
// and did not save. A repeat search with the same context deprioritizes them.
func (s *Service) SeenButUnsaved(ctx context.Context, identity domain.Identity, searchCtx domain.SearchContext) ([]domain.PlaceID, error) {
	recs, err := s.interactions.ListByContext(ctx, identity, searchCtx.Fingerprint())
	if err != nil {
		return nil, err
	}
	out := make([]domain.PlaceID, 0, len(recs))
	for _, r := range recs {
		if r.Viewed && !r.Saved {
			out = append(out, r.PlaceID)
		}
	}
	return out, nil
}

// Migrate re-keys every interaction recorded under the anonymous identity to
// the authenticated one and folds the address-keyed rate-limit counter into
// the user's. A completed migration leaves a marker; a repeat invocation is a
// no-op reporting AlreadyMigrated.
//
// Record failures are collected, not fatal: the batch migrates what it can
// and reports the rest.
func (s *Service) Migrate(ctx context.Context, anon, user domain.Identity, rawAddress string) (MigrateResult, error) {
	if !user.IsAuthenticated() {
		return MigrateResult{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "migration target must be an authenticated identity"}
	}

	key := migrationmark.Key{From: anon, To: user}
	if mark, ok, err := s.marks.Get(ctx, key); err != nil {
		return MigrateResult{}, err
	} else if ok {
		return MigrateResult{MigratedCount: mark.MigratedCount, AlreadyMigrated: true}, nil
	}

	recs, err := s.interactions.ListByIdentity(ctx, anon)
	if err != nil {
		return MigrateResult{}, err
	}

	var res MigrateResult
	for _, r := range recs {
		if err := s.rekey(ctx, r, user); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("place %s: %v", r.PlaceID, err))
			continue
		}
		res.MigratedCount++
	}

	if err := s.limiter.MergeAnonymous(ctx, rawAddress, user); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("rate limit merge: %v", err))
	}

	if err := s.marks.Put(ctx, key, migrationmark.Record{
		MigratedCount: res.MigratedCount,
		CompletedAt:   time.Now().UTC(),
	}); err != nil {
		return MigrateResult{}, err
	}

	metrics.MigrationsTotal.Inc()
	return res, nil
}

// rekey moves one record under the user identity, merging with any record the
// user already has for the same (place, context) key.
func (s *Service) rekey(ctx context.Context, r interactionrepo.Interaction, user domain.Identity) error {
	moved := r
	moved.Identity = user

	existing, err := s.interactions.Get(ctx, user, r.PlaceID, r.ContextFingerprint)
	switch {
	case err == nil:
		moved.Viewed = moved.Viewed || existing.Viewed
		moved.Saved = moved.Saved || existing.Saved
		if existing.ViewedAt.Before(moved.ViewedAt) && !existing.ViewedAt.IsZero() {
			moved.ViewedAt = existing.ViewedAt
		}
		if moved.SavedAt == nil {
			moved.SavedAt = existing.SavedAt
		}
		if existing.UpdatedAt.After(moved.UpdatedAt) {
			moved.UpdatedAt = existing.UpdatedAt
		}
	case errors.Is(err, interactionrepo.ErrNotFound):
	default:
		return err
	}

	if err := s.interactions.Put(ctx, moved); err != nil {
		return err
	}
	return s.interactions.Delete(ctx, r.Identity, r.PlaceID, r.ContextFingerprint)
}
