package commands

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/dayrally/dayrally/internal/app"
	"github.com/dayrally/dayrally/internal/store"
)

// DB is an alias so command code doesn't need to import database/sql.
type DB = sql.DB

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// Intentionally hide the original error: the logged error is the output.
	return "error already printed"
}

func openDB() (*DB, func(), error) {
	workspace, err := app.WorkspaceDir()
	if err != nil {
		return nil, nil, err
	}

	db, err := store.Open(workspace)
	if err != nil {
		return nil, nil, err
	}

	return db, func() { _ = db.Close() }, nil
}

func withDB(fn func(db *DB) error) error {
	db, closeDB, err := openDB()
	if err != nil {
		return cmdErr(err)
	}
	defer closeDB()

	if err := fn(db); err != nil {
		return cmdErr(err)
	}
	return nil
}

func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	attrs := []any{"error", err.Error()}
	type slogAttrError interface {
		SlogAttrs() []any
	}
	var detailed slogAttrError
	if errors.As(err, &detailed) {
		attrs = append(attrs, detailed.SlogAttrs()...)
	}
	slog.Error("command error", attrs...)
	return printedError{err: err}
}

// today returns the current local date the way date columns store it.
func today() string {
	return time.Now().Format("2006-01-02")
}
