package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dayrally/dayrally/internal/models"
)

const noteColumns = `id, title, body_markdown, tags, folder_id, created_at, updated_at`

// untitledNote is used when a note is saved with a blank title.
const untitledNote = "Untitled note"

func scanNote(row rowScanner) (*models.Note, error) {
	var (
		n        models.Note
		tagsCSV  string
		folderID sql.NullString
	)
	if err := row.Scan(&n.ID, &n.Title, &n.BodyMarkdown, &tagsCSV, &folderID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Tags = TagsFromCSV(tagsCSV)
	n.FolderID = scanNullString(folderID)
	return &n, nil
}

func noteTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if title == "" {
		return untitledNote
	}
	return title
}

// ListNotes returns all notes, most recently updated first.
func ListNotes(db *sql.DB) ([]*models.Note, error) {
	rows, err := db.QueryContext(context.Background(),
		`SELECT `+noteColumns+` FROM notes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []*models.Note
	for rows.Next() {
		note, scanErr := scanNote(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", scanErr)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// GetNote retrieves a note by id.
func GetNote(db *sql.DB, id string) (*models.Note, error) {
	return getNoteByQuerier(db, id)
}

func getNoteByQuerier(q Querier, id string) (*models.Note, error) {
	row := q.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "note", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}
	return note, nil
}

// CreateNote inserts a note. A blank title becomes "Untitled note".
func CreateNote(db *sql.DB, input models.NoteInput) (*models.Note, error) {
	id := newID()
	now := nowRFC3339()
	tagsCSV := TagsToCSV(NormalizeTags(input.Tags))

	err := RetryWithBackoff(func() error {
		_, err := db.ExecContext(context.Background(), `
			INSERT INTO notes (id, title, body_markdown, tags, folder_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, noteTitle(input.Title), input.BodyMarkdown, tagsCSV, nullable(input.FolderID), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetNote(db, id)
}

// UpdateNote replaces a note's mutable fields.
func UpdateNote(db *sql.DB, id string, input models.NoteInput) (*models.Note, error) {
	tagsCSV := TagsToCSV(NormalizeTags(input.Tags))

	err := RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(), `
			UPDATE notes SET title = ?, body_markdown = ?, tags = ?, folder_id = ?, updated_at = ?
			WHERE id = ?
		`, noteTitle(input.Title), input.BodyMarkdown, tagsCSV, nullable(input.FolderID), nowRFC3339(), id)
		if err != nil {
			return fmt.Errorf("failed to update note: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "note", ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetNote(db, id)
}

// DeleteNote removes a note; its attachment rows cascade with it. Attachment
// files on disk are not removed here (known gap, cleaned up out of band).
func DeleteNote(db *sql.DB, id string) error {
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(), `DELETE FROM notes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "note", ID: id}
		}
		return nil
	})
}

func scanNoteFolder(row rowScanner) (*models.NoteFolder, error) {
	var f models.NoteFolder
	if err := row.Scan(&f.ID, &f.Name, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListNoteFolders returns all folders sorted by case-insensitive name.
func ListNoteFolders(db *sql.DB) ([]*models.NoteFolder, error) {
	rows, err := db.QueryContext(context.Background(),
		`SELECT id, name, created_at, updated_at FROM note_folders ORDER BY lower(name) ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query note folders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var folders []*models.NoteFolder
	for rows.Next() {
		folder, scanErr := scanNoteFolder(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan folder row: %w", scanErr)
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// CreateNoteFolder inserts a folder. The name must be non-empty after trimming.
func CreateNoteFolder(db *sql.DB, name string) (*models.NoteFolder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Validationf("folder name cannot be empty")
	}

	id := newID()
	now := nowRFC3339()
	err := RetryWithBackoff(func() error {
		_, err := db.ExecContext(context.Background(),
			`INSERT INTO note_folders (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			id, name, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert note folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(context.Background(),
		`SELECT id, name, created_at, updated_at FROM note_folders WHERE id = ?`, id)
	folder, err := scanNoteFolder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created folder: %w", err)
	}
	return folder, nil
}

// DeleteNoteFolder removes a folder, unfiling its notes in the same
// transaction. Notes are never deleted with their folder.
func DeleteNoteFolder(db *sql.DB, id string) error {
	return Transact(db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(context.Background(),
			`UPDATE notes SET folder_id = NULL WHERE folder_id = ?`, id); err != nil {
			return fmt.Errorf("failed to unfile notes: %w", err)
		}

		result, err := tx.ExecContext(context.Background(),
			`DELETE FROM note_folders WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete note folder: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "folder", ID: id}
		}
		return nil
	})
}

func scanNoteAttachment(row rowScanner) (*models.NoteAttachment, error) {
	var a models.NoteAttachment
	if err := row.Scan(&a.ID, &a.NoteID, &a.Filename, &a.PathRelative, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListNoteAttachments returns a note's attachment rows, newest first.
func ListNoteAttachments(db *sql.DB, noteID string) ([]*models.NoteAttachment, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT id, note_id, filename, path_relative, created_at
		FROM note_attachments
		WHERE note_id = ?
		ORDER BY created_at DESC
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query note attachments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attachments []*models.NoteAttachment
	for rows.Next() {
		attachment, scanErr := scanNoteAttachment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan attachment row: %w", scanErr)
		}
		attachments = append(attachments, attachment)
	}
	return attachments, rows.Err()
}

// CreateNoteAttachment records a stored attachment file against a note.
func CreateNoteAttachment(db *sql.DB, noteID, filename, pathRelative string) (*models.NoteAttachment, error) {
	id := newID()
	err := RetryWithBackoff(func() error {
		_, err := db.ExecContext(context.Background(), `
			INSERT INTO note_attachments (id, note_id, filename, path_relative, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, id, noteID, filename, pathRelative, nowRFC3339())
		if err != nil {
			return fmt.Errorf("failed to insert note attachment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(context.Background(),
		`SELECT id, note_id, filename, path_relative, created_at FROM note_attachments WHERE id = ?`, id)
	attachment, err := scanNoteAttachment(row)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created attachment: %w", err)
	}
	return attachment, nil
}
