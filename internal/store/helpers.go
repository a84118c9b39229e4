package store

import (
	"database/sql"
	"time"
)

// nowRFC3339 renders the current instant the way every timestamp column stores it.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// scanNullString converts sql.NullString to string (empty if NULL).
func scanNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// scanNullInt converts sql.NullInt64 to int (zero if NULL).
func scanNullInt(ni sql.NullInt64) int {
	if ni.Valid {
		return int(ni.Int64)
	}
	return 0
}

// nullable maps an empty string to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableInt maps zero to NULL for optional integer columns.
func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

// boolToInt renders a bool the way SQLite stores it.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
