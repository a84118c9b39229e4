package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayrally/dayrally/internal/models"
)

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Work ", "", "work", "Deep Focus", "WORK", "deep focus"})
	assert.Equal(t, []string{"Work", "Deep Focus"}, got)

	// Idempotent: a second pass changes nothing.
	assert.Equal(t, got, NormalizeTags(got))
}

func TestNormalizeTagsEmpty(t *testing.T) {
	assert.Empty(t, NormalizeTags(nil))
	assert.Empty(t, NormalizeTags([]string{"", "  "}))
}

func TestTagsCSVRoundTrip(t *testing.T) {
	tags := []string{"Work", "reports"}
	assert.Equal(t, tags, TagsFromCSV(TagsToCSV(tags)))
	assert.Empty(t, TagsFromCSV(""))
}

func TestTaskWriteSyncsTagRows(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	task, err := CreateTask(db, models.TaskInput{
		Title:      "Tagged",
		Tags:       []string{"Work", "reports"},
		TargetDate: "2026-02-06",
		Status:     string(models.TaskStatusTodo),
	})
	require.NoError(t, err)

	tags, err := ListTags(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "reports"}, tags)

	// Updating with a different casing reuses the existing tag row.
	_, err = UpdateTask(db, task.ID, models.TaskInput{
		Title:      "Tagged",
		Tags:       []string{"WORK"},
		TargetDate: "2026-02-06",
		Status:     string(models.TaskStatusTodo),
	})
	require.NoError(t, err)

	var joinRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM task_tags WHERE task_id = ?`, task.ID).Scan(&joinRows))
	assert.Equal(t, 1, joinRows)

	var tagCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tags WHERE LOWER(name) = 'work'`).Scan(&tagCount))
	assert.Equal(t, 1, tagCount, "case-insensitive match must not duplicate the tag")
}

func TestDeleteTaskCascadesJoinRows(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	task, err := CreateTask(db, models.TaskInput{
		Title:      "Tagged and doomed",
		Tags:       []string{"temp"},
		TargetDate: "2026-02-06",
		Status:     string(models.TaskStatusTodo),
	})
	require.NoError(t, err)

	require.NoError(t, DeleteTask(db, task.ID))

	var joinRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM task_tags WHERE task_id = ?`, task.ID).Scan(&joinRows))
	assert.Equal(t, 0, joinRows)

	// The tag itself survives for reuse.
	tags, err := ListTags(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"temp"}, tags)
}
