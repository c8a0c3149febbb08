package migrationmark

import (
	"testing"

	"github.com/cafescout/cafe-scout-api/internal/adapters/contracttest"
	"github.com/cafescout/cafe-scout-api/internal/adapters/postgres/testutil"
	migrationmarkport "github.com/cafescout/cafe-scout-api/internal/ports/out/migrationmark"
)

func TestContract_PostgresMigrationMarkStore(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunMigrationMarkStore(t, func(t *testing.T) (migrationmarkport.Store, func()) {
		t.Helper()
		return NewStore(pool), nil
	})
}
