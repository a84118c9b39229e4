package actions

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dayrally/dayrally/internal/store"
)

// setupTestDB opens a fully migrated database in a temp dir with cleanup
// registered via t.Cleanup.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.OpenPath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
