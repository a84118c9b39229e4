package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func TestFreshOpenCreatesFullSchema(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, table := range []string{
		"tasks", "notes", "note_folders", "note_attachments",
		"checkin_people", "checkins", "tags", "task_tags",
	} {
		assert.True(t, tableExists(t, db, table), "missing table %s", table)
	}

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, tagsMigrationVersion, version)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	var journal string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&journal))
	assert.Equal(t, "wal", journal)
}

func TestReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenPath(path)
	require.NoError(t, err)
	mustCreateTask(t, db, "Survives reopen", "2026-02-06")
	require.NoError(t, db.Close())

	db, err = OpenPath(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&count))
	assert.Equal(t, 1, count)
}

// TestRecoverPartialTagsMigration models a process that applied the tags DDL
// but died before goose recorded the version row. A plain re-run would fail
// on the duplicate column; the recovery probe must record the version instead.
func TestRecoverPartialTagsMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", normalizeSQLiteDSN(path))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetVerbose(false)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpTo(db, "migrations", tagsMigrationVersion-1))

	// Apply the tags DDL by hand without recording the version row.
	stmts := []string{
		`ALTER TABLE tasks ADD COLUMN tags TEXT NOT NULL DEFAULT ''`,
		`CREATE TABLE tags (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE, created_at TEXT NOT NULL)`,
		`CREATE TABLE task_tags (
			task_id TEXT NOT NULL,
			tag_id TEXT NOT NULL,
			PRIMARY KEY (task_id, tag_id),
			FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE,
			FOREIGN KEY(tag_id) REFERENCES tags(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	require.NoError(t, RunMigrations(db))

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, tagsMigrationVersion, version)
}

// TestRecoveryLeavesPendingMigrationsAlone: when the store is further behind
// than the tags migration's predecessor, the probe must not record anything,
// and the normal migration path brings the store fully current.
func TestRecoveryLeavesPendingMigrationsAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", normalizeSQLiteDSN(path))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetVerbose(false)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpTo(db, "migrations", 4))

	require.NoError(t, RunMigrations(db))

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, tagsMigrationVersion, version)
	assert.True(t, tableExists(t, db, "checkins"))
}

// TestRebuildStaleTaskTags simulates the aftermath of the rename-based tasks
// migration: task_tags left pointing at tasks_old, with one orphaned row.
// The repair must recreate the table against tasks and drop the orphan.
func TestRebuildStaleTaskTags(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	task := mustCreateTask(t, db, "Keeps its tag", "2026-02-06")

	_, err := db.Exec(`INSERT INTO tags (id, name, created_at) VALUES ('tag-1', 'work', '2026-02-06T00:00:00Z')`)
	require.NoError(t, err)

	_, err = db.Exec(`PRAGMA foreign_keys=OFF`)
	require.NoError(t, err)
	stmts := []string{
		`DROP TABLE task_tags`,
		`CREATE TABLE task_tags (
			task_id TEXT NOT NULL,
			tag_id TEXT NOT NULL,
			PRIMARY KEY (task_id, tag_id),
			FOREIGN KEY(task_id) REFERENCES tasks_old(id) ON DELETE CASCADE,
			FOREIGN KEY(tag_id) REFERENCES tags(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	_, err = db.Exec(`INSERT INTO task_tags (task_id, tag_id) VALUES (?, 'tag-1')`, task.ID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO task_tags (task_id, tag_id) VALUES ('ghost-task', 'tag-1')`)
	require.NoError(t, err)

	require.NoError(t, RunMigrations(db))

	stale, err := taskTagsReferencesOldTasks(db)
	require.NoError(t, err)
	assert.False(t, stale)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM task_tags`).Scan(&rows))
	assert.Equal(t, 1, rows, "orphaned join row should be dropped")

	var kept string
	require.NoError(t, db.QueryRow(`SELECT task_id FROM task_tags`).Scan(&kept))
	assert.Equal(t, task.ID, kept)
}
