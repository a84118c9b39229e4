package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// tagsMigrationVersion is the migration that added the tasks.tags column and
// the tags/task_tags tables. Older builds could apply its DDL and then die
// before recording the version row, so this version gets a structural probe
// instead of a blind re-run.
const tagsMigrationVersion int64 = 8

// MigrateDB runs all pending migrations with a file lock to prevent concurrent
// migration races. For in-memory databases (tests), the lock is skipped.
func MigrateDB(db *sql.DB, dbPath string) error {
	if dbPath != ":memory:" && !strings.Contains(dbPath, ":memory:") {
		lockF, err := lockFile(dbPath)
		if err != nil {
			return fmt.Errorf("migration lock: %w", err)
		}
		defer unlockFile(lockF)
	}
	return RunMigrations(db)
}

// RunMigrations brings the store to the current schema version and applies the
// open-time schema repairs. Any failure aborts the whole open.
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetVerbose(false)
	goose.SetLogger(goose.NopLogger())

	// goose uses "sqlite3" as its dialect name regardless of the underlying
	// driver; we register modernc.org/sqlite as "sqlite".
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	if err := recoverPartialTagsMigration(db); err != nil {
		return fmt.Errorf("partial migration recovery: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}

	if err := ensureTaskTagsSchema(db); err != nil {
		return fmt.Errorf("task tags schema repair: %w", err)
	}

	return nil
}

// SchemaVersion returns the current migration version recorded in the store.
// A fresh database reports 0.
func SchemaVersion(db *sql.DB) (int64, error) {
	goose.SetBaseFS(embedMigrations)
	goose.SetVerbose(false)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	current, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, nil
	}
	return current, nil
}

// recoverPartialTagsMigration records the tags migration as applied when its
// DDL already took effect but the version row is missing. This models a
// process killed between altering the schema and committing its bookkeeping
// row; re-running the DDL would fail on a duplicate column.
func recoverPartialTagsMigration(db *sql.DB) error {
	var hasVersionTable int
	err := db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'goose_db_version'`,
	).Scan(&hasVersionTable)
	if err != nil {
		return fmt.Errorf("probe version table: %w", err)
	}
	if hasVersionTable == 0 {
		return nil // fresh store, nothing to recover
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("read current version: %w", err)
	}
	// Only the step from the immediately preceding version is recoverable;
	// anything else means real DDL is still pending.
	if current != tagsMigrationVersion-1 {
		return nil
	}

	hasTags, err := tasksHasTagsColumn(db)
	if err != nil {
		return err
	}
	if !hasTags {
		return nil
	}

	_, err = db.ExecContext(context.Background(),
		`INSERT INTO goose_db_version (version_id, is_applied) VALUES (?, 1)`,
		tagsMigrationVersion,
	)
	if err != nil {
		return fmt.Errorf("record recovered version %d: %w", tagsMigrationVersion, err)
	}
	return nil
}

func tasksHasTagsColumn(db *sql.DB) (bool, error) {
	var count int
	err := db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM pragma_table_info('tasks') WHERE name = 'tags'`,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("probe tasks.tags column: %w", err)
	}
	return count > 0, nil
}

// ensureTaskTagsSchema runs the two version-independent consistency repairs:
// the denormalized tags column must exist with a default, and the task_tags
// join table must reference the live tasks table.
func ensureTaskTagsSchema(db *sql.DB) error {
	hasTags, err := tasksHasTagsColumn(db)
	if err != nil {
		return err
	}
	if !hasTags {
		if _, err := db.ExecContext(context.Background(),
			`ALTER TABLE tasks ADD COLUMN tags TEXT NOT NULL DEFAULT ''`,
		); err != nil {
			return fmt.Errorf("add tasks.tags column: %w", err)
		}
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tags (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS task_tags (
			task_id TEXT NOT NULL,
			tag_id TEXT NOT NULL,
			PRIMARY KEY (task_id, tag_id),
			FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE,
			FOREIGN KEY(tag_id) REFERENCES tags(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_tags_task ON task_tags(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_task_tags_tag ON task_tags(tag_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			return fmt.Errorf("ensure tag tables: %w", err)
		}
	}

	stale, err := taskTagsReferencesOldTasks(db)
	if err != nil {
		return err
	}
	if stale {
		if err := rebuildTaskTagsTable(db); err != nil {
			return fmt.Errorf("rebuild task_tags: %w", err)
		}
	}
	return nil
}

// taskTagsReferencesOldTasks detects the signature of an earlier in-place
// migration that renamed tasks aside but left task_tags foreign keys stale.
func taskTagsReferencesOldTasks(db *sql.DB) (bool, error) {
	var count int
	err := db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM pragma_foreign_key_list('task_tags') WHERE "table" = 'tasks_old'`,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("probe task_tags foreign keys: %w", err)
	}
	return count > 0, nil
}

// rebuildTaskTagsTable recreates task_tags with correct foreign keys, keeping
// only rows whose task and tag endpoints still exist. Orphans are dropped.
// Foreign key enforcement is suspended around the rename since the stale
// references are exactly what is being repaired.
func rebuildTaskTagsTable(db *sql.DB) error {
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys=OFF`); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		_, _ = db.ExecContext(context.Background(), `PRAGMA foreign_keys=ON`)
	}()

	return Transact(db, func(tx *sql.Tx) error {
		stmts := []string{
			`ALTER TABLE task_tags RENAME TO task_tags_old`,
			`CREATE TABLE task_tags (
				task_id TEXT NOT NULL,
				tag_id TEXT NOT NULL,
				PRIMARY KEY (task_id, tag_id),
				FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE,
				FOREIGN KEY(tag_id) REFERENCES tags(id) ON DELETE CASCADE
			)`,
			`INSERT INTO task_tags (task_id, tag_id)
			 SELECT old.task_id, old.tag_id
			 FROM task_tags_old old
			 INNER JOIN tasks t ON t.id = old.task_id
			 INNER JOIN tags g ON g.id = old.tag_id`,
			`DROP TABLE task_tags_old`,
			`CREATE INDEX IF NOT EXISTS idx_task_tags_task ON task_tags(task_id)`,
			`CREATE INDEX IF NOT EXISTS idx_task_tags_tag ON task_tags(tag_id)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(context.Background(), stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
