package interactionrepo

import (
	"context"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/domain"
)

// Interaction is the persistence shape of one place interaction, keyed by
// (identity, placeId, contextFingerprint).
//
// Saved is a strict subset condition on Viewed: a record is never Saved
// without also being Viewed.
type Interaction struct {
	Identity           domain.Identity
	PlaceID            domain.PlaceID
	ContextFingerprint string

	PlaceName string
	Context   domain.SearchContext

	Viewed bool
	Saved  bool

	ViewedAt  time.Time
	SavedAt   *time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted place interactions.
//
// ListByIdentity exists for the anonymous-to-authenticated migration, which
// re-keys every record under a new identity.
type Repository interface {
	Get(ctx context.Context, identity domain.Identity, placeID domain.PlaceID, fingerprint string) (Interaction, error)
	Put(ctx context.Context, in Interaction) error
	Delete(ctx context.Context, identity domain.Identity, placeID domain.PlaceID, fingerprint string) error

	ListByContext(ctx context.Context, identity domain.Identity, fingerprint string) ([]Interaction, error)
	ListByIdentity(ctx context.Context, identity domain.Identity) ([]Interaction, error)
}
