package interactionrepo

import (
	"testing"

	"github.com/cafescout/cafe-scout-api/internal/adapters/contracttest"
	interactionrepoport "github.com/cafescout/cafe-scout-api/internal/ports/out/interactionrepo"
)

func TestContract_InteractionRepo(t *testing.T) {
	contracttest.RunInteractionRepo(t, func(t *testing.T) (interactionrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
