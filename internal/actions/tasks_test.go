package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayrally/dayrally/internal/models"
)

func TestTaskCreateValidation(t *testing.T) {
	db := setupTestDB(t)

	_, err := TaskCreate(db, models.TaskInput{TargetDate: "2026-02-06"})
	assert.True(t, models.IsValidation(err), "empty title rejected")

	_, err = TaskCreate(db, models.TaskInput{Title: "Bad date", TargetDate: "tomorrow"})
	assert.True(t, models.IsValidation(err))

	_, err = TaskCreate(db, models.TaskInput{
		Title: "Bad status", TargetDate: "2026-02-06", Status: "paused",
	})
	assert.Error(t, err)

	_, err = TaskCreate(db, models.TaskInput{
		Title: "Bad recurrence", TargetDate: "2026-02-06",
		IsRecurring: true, RecurrenceType: "hourly",
	})
	assert.True(t, models.IsValidation(err))
}

func TestTaskCreateDefaultsStatus(t *testing.T) {
	db := setupTestDB(t)

	task, err := TaskCreate(db, models.TaskInput{Title: "No status", TargetDate: "2026-02-06"})
	require.NoError(t, err)
	assert.Equal(t, string(models.TaskStatusTodo), task.Status)
}

func TestTaskSetStatusDoneGeneratesNextOccurrence(t *testing.T) {
	db := setupTestDB(t)

	task, err := TaskCreate(db, models.TaskInput{
		Title:          "Daily standup",
		TargetDate:     "2026-02-06",
		IsRecurring:    true,
		RecurrenceType: "daily",
	})
	require.NoError(t, err)

	done, err := TaskSetStatus(db, task.ID, string(models.TaskStatusDone))
	require.NoError(t, err)
	assert.Equal(t, string(models.TaskStatusDone), done.Status)

	result, err := Overview(db, "2026-02-06")
	require.NoError(t, err)
	require.Len(t, result.Overview.Upcoming, 1)
	assert.Equal(t, "2026-02-07", result.Overview.Upcoming[0].TargetDate)
}

func TestTaskSetStatusRejectsUnknown(t *testing.T) {
	db := setupTestDB(t)

	task, err := TaskCreate(db, models.TaskInput{Title: "Any", TargetDate: "2026-02-06"})
	require.NoError(t, err)

	_, err = TaskSetStatus(db, task.ID, "archived")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestOverviewRunsSweepBeforeListing(t *testing.T) {
	db := setupTestDB(t)

	_, err := TaskCreate(db, models.TaskInput{Title: "Slipped", TargetDate: "2026-02-04"})
	require.NoError(t, err)
	_, err = TaskCreate(db, models.TaskInput{Title: "Planned", TargetDate: "2026-02-06"})
	require.NoError(t, err)

	result, err := Overview(db, "2026-02-06")
	require.NoError(t, err)

	assert.Equal(t, 1, result.RolledOver)
	require.Len(t, result.Overview.RolledOver, 1)
	assert.Equal(t, "Slipped", result.Overview.RolledOver[0].Title)
	require.Len(t, result.Overview.Today, 1)
	assert.Equal(t, "Planned", result.Overview.Today[0].Title)

	_, err = Overview(db, "not-a-date")
	assert.True(t, models.IsValidation(err))
}

func TestTaskMoveValidation(t *testing.T) {
	db := setupTestDB(t)

	task, err := TaskCreate(db, models.TaskInput{Title: "Any", TargetDate: "2026-02-06"})
	require.NoError(t, err)

	assert.True(t, models.IsValidation(TaskMove(db, task.ID, "sideways")))
	assert.NoError(t, TaskMove(db, task.ID, "up"))
}

func TestTaskReorderValidation(t *testing.T) {
	db := setupTestDB(t)
	assert.True(t, models.IsValidation(TaskReorder(db, nil)))
}
