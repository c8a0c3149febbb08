package searchrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/domain"
)

// Search is the persistence shape of one search lifecycle record.
//
// Result payloads are stored opaquely: their shape belongs to the mapping
// provider and the client, not to this service.
type Search struct {
	Identity domain.Identity
	ID       domain.SearchID

	Params domain.SearchParams

	Status         domain.SearchStatus
	FailureStage   domain.FailureStage
	FailureMessage string

	Results       json.RawMessage
	AllResults    json.RawMessage
	HasMorePages  bool
	NextPageToken string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted search lifecycle records.
type Repository interface {
	Create(ctx context.Context, s Search) error
	Save(ctx context.Context, s Search) error
	Get(ctx context.Context, identity domain.Identity, id domain.SearchID) (Search, error)
}
