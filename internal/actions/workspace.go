package actions

import (
	"github.com/dayrally/dayrally/internal/app"
	"github.com/dayrally/dayrally/internal/store"
)

// SetWorkspace makes path the active workspace. The directory tree is created
// and the store opened and migrated before the path is persisted, so a path
// that cannot hold a working store is never saved.
func SetWorkspace(path string) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	_ = db.Close()

	return app.SaveWorkspacePath(path)
}
