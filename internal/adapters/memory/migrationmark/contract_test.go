package migrationmark

import (
	"testing"

	"github.com/cafescout/cafe-scout-api/internal/adapters/contracttest"
	migrationmarkport "github.com/cafescout/cafe-scout-api/internal/ports/out/migrationmark"
)

func TestContract_MigrationMarkStore(t *testing.T) {
	contracttest.RunMigrationMarkStore(t, func(t *testing.T) (migrationmarkport.Store, func()) {
		t.Helper()
		return NewStore(), nil
	})
}
