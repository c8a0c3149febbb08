package interactionrepo

import (
	"testing"

	"github.com/cafescout/cafe-scout-api/internal/adapters/contracttest"
	"github.com/cafescout/cafe-scout-api/internal/adapters/postgres/testutil"
	interactionrepoport "github.com/cafescout/cafe-scout-api/internal/ports/out/interactionrepo"
)

func TestContract_PostgresInteractionRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunInteractionRepo(t, func(t *testing.T) (interactionrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
