package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dayrally/dayrally/internal/models"
)

// setupTestDB opens a fully migrated database in a temp dir.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	db, err := OpenPath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	return db, func() { _ = db.Close() }
}

// mustCreateTask inserts a minimal task for the given day.
func mustCreateTask(t *testing.T, db *sql.DB, title, targetDate string) *models.Task {
	t.Helper()

	task, err := CreateTask(db, models.TaskInput{
		Title:      title,
		TargetDate: targetDate,
		Status:     string(models.TaskStatusTodo),
	})
	if err != nil {
		t.Fatalf("Failed to create task %q: %v", title, err)
	}
	return task
}
