package actions

import (
	"database/sql"

	"github.com/dayrally/dayrally/internal/app"
	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/store"
)

// AttachImageToNote stores pasted image bytes in the workspace attachment
// tree and records the row against the note. The note must exist before any
// bytes hit disk; a failed insert can leave an orphaned file, which is
// harmless and reclaimed when the note's directory is cleaned up.
func AttachImageToNote(db *sql.DB, workspace, noteID string, data []byte) (*models.NoteAttachment, error) {
	if _, err := store.GetNote(db, noteID); err != nil {
		return nil, err
	}

	filename, pathRelative, err := app.SaveNoteImage(workspace, noteID, data)
	if err != nil {
		return nil, err
	}

	return store.CreateNoteAttachment(db, noteID, filename, pathRelative)
}
