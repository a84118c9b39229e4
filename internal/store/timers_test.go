package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayrally/dayrally/internal/models"
)

func TestListRunningTimers(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	running := mustCreateTask(t, db, "Focus block", "2026-02-06")
	mustCreateTask(t, db, "No timer", "2026-02-06")
	paused := mustCreateTask(t, db, "Paused", "2026-02-06")

	endsAt := time.Now().Add(10 * time.Minute).UTC().Format(time.RFC3339)
	require.NoError(t, StartTimer(db, running.ID, endsAt))
	require.NoError(t, StartTimer(db, paused.ID, endsAt))
	require.NoError(t, StopTimer(db, paused.ID))

	timers, err := ListRunningTimers(db)
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, running.ID, timers[0].ID)
	assert.Equal(t, string(models.TimerRunning), timers[0].TimerState)
	assert.Equal(t, endsAt, timers[0].TimerEndsAt)
}

func TestTimerStateTransitionsRequireExistingTask(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := StartTimer(db, "ghost", time.Now().UTC().Format(time.RFC3339))
	assert.True(t, models.IsNotFound(err))
	assert.True(t, models.IsNotFound(StopTimer(db, "ghost")))
	assert.True(t, models.IsNotFound(FinishTimer(db, "ghost")))
}
