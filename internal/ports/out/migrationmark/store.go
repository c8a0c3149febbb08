package migrationmark

import (
	"context"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/domain"
)

// Key identifies one anonymous-to-authenticated migration.
type Key struct {
	From domain.Identity
	To   domain.Identity
}

// Record is the completion marker stored for an applied migration. Its
// presence makes a repeat invocation a no-op instead of a double count.
type Record struct {
	MigratedCount int
	CompletedAt   time.Time
}

// Store persists migration-completed markers.
type Store interface {
	Get(ctx context.Context, k Key) (Record, bool, error)
	Put(ctx context.Context, k Key, rec Record) error
}
