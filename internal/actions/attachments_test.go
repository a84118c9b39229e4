package actions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/store"
)

func TestAttachImageToNote(t *testing.T) {
	db := setupTestDB(t)
	workspace := t.TempDir()

	note, err := store.CreateNote(db, models.NoteInput{Title: "With image"})
	require.NoError(t, err)

	attachment, err := AttachImageToNote(db, workspace, note.ID, []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)

	assert.Equal(t, note.ID, attachment.NoteID)
	assert.Equal(t, filepath.Join("attachments", note.ID, attachment.Filename), attachment.PathRelative)

	data, err := os.ReadFile(filepath.Join(workspace, attachment.PathRelative))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)

	listed, err := store.ListNoteAttachments(db, note.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestAttachImageRequiresExistingNote(t *testing.T) {
	db := setupTestDB(t)
	workspace := t.TempDir()

	_, err := AttachImageToNote(db, workspace, "ghost-note", []byte{1})
	assert.True(t, models.IsNotFound(err))

	// No file should have been written for the missing note.
	entries, readErr := os.ReadDir(filepath.Join(workspace, "attachments"))
	if readErr == nil {
		assert.Empty(t, entries)
	}
}

func TestAttachImageRejectsEmptyBytes(t *testing.T) {
	db := setupTestDB(t)
	workspace := t.TempDir()

	note, err := store.CreateNote(db, models.NoteInput{Title: "Empty paste"})
	require.NoError(t, err)

	_, err = AttachImageToNote(db, workspace, note.ID, nil)
	assert.True(t, models.IsValidation(err))
}
