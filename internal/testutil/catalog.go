package testutil

import (
	"testing"

	"tc-go/internal/database"
	"tc-go/internal/tc"
)

// NewTestCatalog creates a new in-memory SQLite catalog with schema
// applied. The catalog is automatically closed when the test completes.
func NewTestCatalog(t *testing.T) tc.Catalog {
	t.Helper()

	catalog, err := database.NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}

	t.Cleanup(func() {
		catalog.Close()
	})

	return catalog
}
