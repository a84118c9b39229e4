package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// NormalizeTags canonicalizes a free-text tag list: whitespace is trimmed,
// empty entries are dropped, and duplicates are removed case-insensitively
// while keeping the casing and position of the first occurrence.
// The function is idempotent.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// TagsToCSV renders a normalized tag list for the denormalized tasks.tags column.
func TagsToCSV(tags []string) string {
	return strings.Join(tags, ",")
}

// TagsFromCSV splits the denormalized column back into a tag list.
func TagsFromCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// syncTaskTagsTx rewrites the task_tags join rows for one task from its
// normalized tag list. Existing Tag rows are matched case-insensitively by
// name; missing ones are created. Runs inside the owning task write's
// transaction so the CSV mirror and the join table can never diverge.
func syncTaskTagsTx(tx *sql.Tx, taskID string, tags []string) error {
	ctx := context.Background()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("failed to clear task tags: %w", err)
	}

	if len(tags) == 0 {
		return nil
	}

	now := nowRFC3339()
	for _, tag := range tags {
		var tagID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM tags WHERE LOWER(name) = LOWER(?) LIMIT 1`, tag,
		).Scan(&tagID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			tagID = newID()
			if _, insErr := tx.ExecContext(ctx,
				`INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?)`,
				tagID, tag, now,
			); insErr != nil {
				return fmt.Errorf("failed to create tag %q: %w", tag, insErr)
			}
		case err != nil:
			return fmt.Errorf("failed to look up tag %q: %w", tag, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)`,
			taskID, tagID,
		); err != nil {
			return fmt.Errorf("failed to link tag %q: %w", tag, err)
		}
	}

	return nil
}

// ListTags returns all known tag names, sorted.
func ListTags(db *sql.DB) ([]string, error) {
	tags, err := queryStringColumn(db, `SELECT name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}
