package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// StoreFilename is the SQLite file inside each workspace directory.
const StoreFilename = "dayrally.sqlite"

// defaultBusyTimeoutMS is the SQLite busy_timeout in milliseconds.
// Override with DAYRALLY_BUSY_TIMEOUT_MS for environments with high contention.
const defaultBusyTimeoutMS = 5000

// Open opens the workspace's store, applying pragmas and migrations.
// Every external entry point goes through here; after the first run the
// migration pass is a cheap no-op. The caller owns closing the handle.
func Open(workspace string) (*sql.DB, error) {
	if err := ensureWorkspaceDirs(workspace); err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(workspace, StoreFilename))
}

// OpenPath opens a store at an explicit database path (useful for testing).
func OpenPath(dbPath string) (*sql.DB, error) {
	// modernc.org/sqlite is strict about DSNs. Use a file: URI with mode=rwc
	// so the database can be created/written consistently across platforms.
	db, err := sql.Open("sqlite", normalizeSQLiteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: the store serves exactly one local process, and a
	// lone connection sidesteps table-lock churn between pooled handles.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busyTimeout := defaultBusyTimeoutMS
	if v := os.Getenv("DAYRALLY_BUSY_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			busyTimeout = parsed
		}
	}

	// busy_timeout first so the remaining pragmas wait on locks rather than
	// failing immediately. WAL keeps readers live during the sweeps;
	// synchronous=NORMAL is safe with WAL for committed transactions.
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=WAL",
	}

	for _, pragma := range pragmas {
		if err := RetryWithBackoff(func() error {
			_, err := db.ExecContext(context.Background(), pragma)
			return err
		}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := RetryWithBackoff(func() error { return MigrateDB(db, dbPath) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// ensureWorkspaceDirs creates the workspace directory and its attachments tree.
func ensureWorkspaceDirs(workspace string) error {
	for _, dir := range []string{workspace, filepath.Join(workspace, "attachments")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create workspace directory: %w", err)
		}
	}
	return nil
}

func normalizeSQLiteDSN(dbPath string) string {
	if strings.HasPrefix(dbPath, "file:") {
		return dbPath
	}
	if dbPath == ":memory:" {
		return "file::memory:?cache=shared"
	}
	// mode=rwc => read/write/create. Without this, some environments open read-only.
	return "file:" + dbPath + "?mode=rwc"
}
