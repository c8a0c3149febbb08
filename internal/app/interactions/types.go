package interactions

import "github.com/cafescout/cafe-scout-api/internal/domain"

// Action is what the caller did with a place card.
type Action string

const (
	ActionView   Action = "view"
	ActionSave   Action = "save"
	ActionUnsave Action = "unsave"
)

func validAction(a Action) bool {
	return a == ActionView || a == ActionSave || a == ActionUnsave
}

type RecordInput struct {
	Action    Action
	PlaceID   domain.PlaceID
	PlaceName string
	Context   domain.SearchContext
}

// MigrateResult reports what an anonymous-to-authenticated migration did.
// Errors holds per-record failures; the batch keeps going past them.
type MigrateResult struct {
	MigratedCount   int
	AlreadyMigrated bool
	Errors          []string
}
