package sched

import (
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/store"
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

func newTestService(t *testing.T, notifier Notifier) (*Service, *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.OpenPath(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	open := func() (*sql.DB, error) { return store.OpenPath(path) }
	return NewService(open, notifier, slog.Default()), db
}

func TestReminderScanNotifiesAndMarksSent(t *testing.T) {
	notifier := &recordingNotifier{}
	service, db := newTestService(t, notifier)

	person, err := store.CreatePerson(db, models.CheckinPersonInput{Name: "Robin", Relationship: "peer"})
	require.NoError(t, err)

	// Due in the past relative to any wall clock.
	checkin, err := store.CreateCheckin(db, models.CheckinInput{
		PersonID:        person.ID,
		CheckinDate:     "2020-01-01",
		NextCheckinDate: "2020-01-08",
		ReminderEnabled: true,
		ReminderTime:    "09:00",
	})
	require.NoError(t, err)

	service.runReminderScan()
	assert.Equal(t, 1, notifier.count())

	sent, err := store.GetCheckin(db, checkin.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ReminderSent), sent.ReminderState)

	// Second scan finds nothing due.
	service.runReminderScan()
	assert.Equal(t, 1, notifier.count())
}

func TestTimerScanFinishesOverdueTimers(t *testing.T) {
	notifier := &recordingNotifier{}
	service, db := newTestService(t, notifier)

	overdue, err := store.CreateTask(db, models.TaskInput{
		Title: "Focus block", TargetDate: "2026-02-06", Status: string(models.TaskStatusTodo),
		TimerEnabled: true, TimerMinutes: 25,
	})
	require.NoError(t, err)
	stillRunning, err := store.CreateTask(db, models.TaskInput{
		Title: "Later block", TargetDate: "2026-02-06", Status: string(models.TaskStatusTodo),
		TimerEnabled: true, TimerMinutes: 25,
	})
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	require.NoError(t, store.StartTimer(db, overdue.ID, past))
	require.NoError(t, store.StartTimer(db, stillRunning.ID, future))

	service.runTimerScan()
	assert.Equal(t, 1, notifier.count())

	finished, err := store.GetTask(db, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.TimerFinished), finished.TimerState)

	running, err := store.GetTask(db, stillRunning.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.TimerRunning), running.TimerState)

	// Already finished: the next scan has nothing to do.
	service.runTimerScan()
	assert.Equal(t, 1, notifier.count())
}

func TestStartCatchesUpOverdueTimers(t *testing.T) {
	notifier := &recordingNotifier{}
	service, db := newTestService(t, notifier)

	task, err := store.CreateTask(db, models.TaskInput{
		Title: "Orphaned countdown", TargetDate: "2026-02-06", Status: string(models.TaskStatusTodo),
		TimerEnabled: true, TimerMinutes: 25,
	})
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	require.NoError(t, store.StartTimer(db, task.ID, past))

	require.NoError(t, service.Start())
	service.Stop()

	assert.Equal(t, 1, notifier.count())
	finished, err := store.GetTask(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.TimerFinished), finished.TimerState)
}

func TestScanSkipsCycleWhenStoreUnavailable(t *testing.T) {
	notifier := &recordingNotifier{}
	open := func() (*sql.DB, error) { return nil, errors.New("workspace not set") }
	service := NewService(open, notifier, slog.Default())

	sweepCalls := 0
	service.Sweep = func(db *sql.DB, today string) error {
		sweepCalls++
		return nil
	}

	// No job should panic, notify, or reach the sweep.
	service.runReminderScan()
	service.runTimerScan()
	service.runSweep()
	assert.Equal(t, 0, notifier.count())
	assert.Equal(t, 0, sweepCalls)
}

func TestSweepRunsInjectedFunc(t *testing.T) {
	service, _ := newTestService(t, &recordingNotifier{})

	var gotDate string
	service.Sweep = func(db *sql.DB, today string) error {
		gotDate = today
		return nil
	}

	service.runSweep()
	assert.NotEmpty(t, gotDate)
	assert.Len(t, gotDate, len("2006-01-02"))
}
