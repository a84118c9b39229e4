package actions

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/store"
	"github.com/dayrally/dayrally/internal/timer"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) Notify(title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, title+": "+body)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func newTestTimers(notifier Notifier) (*Timers, *timer.Registry) {
	registry := timer.NewRegistry()
	return NewTimers(registry, notifier, slog.Default()), registry
}

func TestTimerStartRequiresTimerEnabled(t *testing.T) {
	db := setupTestDB(t)
	timers, _ := newTestTimers(&recordingNotifier{})

	task, err := TaskCreate(db, models.TaskInput{Title: "No timer", TargetDate: "2026-02-06"})
	require.NoError(t, err)

	_, err = timers.Start(db, task.ID, time.Now())
	assert.True(t, models.IsValidation(err))
}

func TestTimerStartPersistsAndRegisters(t *testing.T) {
	db := setupTestDB(t)
	timers, registry := newTestTimers(&recordingNotifier{})

	task, err := TaskCreate(db, models.TaskInput{
		Title:        "Focus block",
		TargetDate:   "2026-02-06",
		TimerEnabled: true,
		TimerMinutes: 50,
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	started, err := timers.Start(db, task.ID, now)
	require.NoError(t, err)

	assert.Equal(t, string(models.TimerRunning), started.TimerState)
	assert.Equal(t, now.Add(50*time.Minute).Format(time.RFC3339), started.TimerEndsAt)

	entry, ok := registry.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, "Focus block", entry.Title)
	assert.Equal(t, 50*time.Minute, registry.Remaining(task.ID, now))
}

func TestTimerStopClearsStateAndRegistry(t *testing.T) {
	db := setupTestDB(t)
	timers, registry := newTestTimers(&recordingNotifier{})

	task, err := TaskCreate(db, models.TaskInput{
		Title:        "Focus block",
		TargetDate:   "2026-02-06",
		TimerEnabled: true,
		TimerMinutes: 25,
	})
	require.NoError(t, err)

	_, err = timers.Start(db, task.ID, time.Now())
	require.NoError(t, err)

	stopped, err := timers.Stop(db, task.ID)
	require.NoError(t, err)

	assert.Equal(t, string(models.TimerPaused), stopped.TimerState)
	assert.Empty(t, stopped.TimerEndsAt)
	_, ok := registry.Get(task.ID)
	assert.False(t, ok)
}

func TestTimerListMergesRegistryAndStoreState(t *testing.T) {
	db := setupTestDB(t)
	timers, _ := newTestTimers(&recordingNotifier{})

	now := time.Now().UTC().Truncate(time.Second)

	owned, err := TaskCreate(db, models.TaskInput{
		Title:        "Focus block",
		TargetDate:   "2026-02-06",
		TimerEnabled: true,
		TimerMinutes: 25,
	})
	require.NoError(t, err)
	_, err = timers.Start(db, owned.ID, now)
	require.NoError(t, err)

	// Started by another process: persisted row only, no registry entry.
	foreign, err := TaskCreate(db, models.TaskInput{
		Title:        "Started elsewhere",
		TargetDate:   "2026-02-06",
		TimerEnabled: true,
		TimerMinutes: 30,
	})
	require.NoError(t, err)
	endsAt := now.Add(30 * time.Minute).Format(time.RFC3339)
	require.NoError(t, store.StartTimer(db, foreign.ID, endsAt))

	running, err := timers.List(db, now.Add(10*time.Minute))
	require.NoError(t, err)
	require.Len(t, running, 2)
	assert.Equal(t, owned.ID, running[0].TaskID)
	assert.Equal(t, "Focus block", running[0].Title)
	assert.Equal(t, 15*60, running[0].RemainingSeconds)
	assert.Equal(t, foreign.ID, running[1].TaskID)
	assert.Equal(t, 20*60, running[1].RemainingSeconds)
}

func TestTimerDeleteDropsTaskAndCountdown(t *testing.T) {
	db := setupTestDB(t)
	timers, registry := newTestTimers(&recordingNotifier{})

	task, err := TaskCreate(db, models.TaskInput{
		Title:        "Doomed",
		TargetDate:   "2026-02-06",
		TimerEnabled: true,
		TimerMinutes: 25,
	})
	require.NoError(t, err)
	_, err = timers.Start(db, task.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, timers.Delete(db, task.ID))

	_, ok := registry.Get(task.ID)
	assert.False(t, ok)
	_, err = store.GetTask(db, task.ID)
	assert.True(t, models.IsNotFound(err))

	assert.True(t, models.IsNotFound(timers.Delete(db, "ghost")))
}

func TestTimerStaleWakeupDoesNothing(t *testing.T) {
	db := setupTestDB(t)
	notifier := &recordingNotifier{}
	timers, registry := newTestTimers(notifier)

	task, err := TaskCreate(db, models.TaskInput{
		Title:        "Focus block",
		TargetDate:   "2026-02-06",
		TimerEnabled: true,
		TimerMinutes: 25,
	})
	require.NoError(t, err)

	_, err = timers.Start(db, task.ID, time.Now())
	require.NoError(t, err)

	// A restart moved the registry entry: the original wakeup must not fire.
	registry.Upsert(timer.Entry{TaskID: task.ID, Title: task.Title, EndsAt: time.Now().Add(time.Hour)})
	timers.awaitExpiry(db, task.ID, task.Title, time.Now())

	assert.Equal(t, 0, notifier.count())
	current, err := store.GetTask(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.TimerRunning), current.TimerState)
}

func TestTimerExpiryFinishesAndNotifies(t *testing.T) {
	db := setupTestDB(t)
	notifier := &recordingNotifier{}
	timers, registry := newTestTimers(notifier)

	task, err := TaskCreate(db, models.TaskInput{
		Title:        "Focus block",
		TargetDate:   "2026-02-06",
		TimerEnabled: true,
		TimerMinutes: 25,
	})
	require.NoError(t, err)

	endsAt := time.Now()
	require.NoError(t, store.StartTimer(db, task.ID, endsAt.Format(time.RFC3339)))
	registry.Upsert(timer.Entry{TaskID: task.ID, Title: task.Title, EndsAt: endsAt})

	timers.awaitExpiry(db, task.ID, task.Title, endsAt)

	assert.Equal(t, 1, notifier.count())
	finished, err := store.GetTask(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.TimerFinished), finished.TimerState)
	_, ok := registry.Get(task.ID)
	assert.False(t, ok)
}
