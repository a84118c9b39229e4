package actions

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/store"
	"github.com/dayrally/dayrally/internal/timer"
)

// Notifier delivers user-facing notifications when a timer or reminder fires.
type Notifier interface {
	Notify(title, body string)
}

// Timers coordinates persisted timer state with the in-process registry and
// the wakeup goroutines that fire completion notifications.
type Timers struct {
	registry *timer.Registry
	notifier Notifier
	logger   *slog.Logger
}

// NewTimers returns a timer coordinator backed by the given registry.
func NewTimers(registry *timer.Registry, notifier Notifier, logger *slog.Logger) *Timers {
	return &Timers{registry: registry, notifier: notifier, logger: logger}
}

// Start begins a task's countdown at now. The task must have its timer
// enabled. Restarting a running timer replaces the old countdown; the stale
// wakeup goroutine notices its expiry no longer matches and does nothing.
func (t *Timers) Start(db *sql.DB, id string, now time.Time) (*models.Task, error) {
	task, err := store.GetTask(db, id)
	if err != nil {
		return nil, err
	}
	if !task.TimerEnabled {
		return nil, models.Validationf("task %s has no timer configured", id)
	}

	minutes := task.TimerMinutes
	if minutes < 1 {
		minutes = 25
	}
	endsAt := now.Add(time.Duration(minutes) * time.Minute).UTC()

	if err := store.StartTimer(db, id, endsAt.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	t.registry.Upsert(timer.Entry{TaskID: id, Title: task.Title, EndsAt: endsAt})

	go t.awaitExpiry(db, id, task.Title, endsAt)

	return store.GetTask(db, id)
}

// awaitExpiry sleeps until endsAt, then finishes the timer if this countdown
// is still the live one. A stop or restart in the meantime changes or removes
// the registry entry, which makes this wakeup a no-op.
func (t *Timers) awaitExpiry(db *sql.DB, id, title string, endsAt time.Time) {
	time.Sleep(time.Until(endsAt))

	entry, ok := t.registry.Get(id)
	if !ok || !entry.EndsAt.Equal(endsAt) {
		return
	}
	t.registry.Remove(id)

	if err := store.FinishTimer(db, id); err != nil {
		t.logger.Warn("failed to finish timer", "task_id", id, "error", err)
		return
	}
	t.notifier.Notify("Timer finished", fmt.Sprintf("Time is up for %q", title))
}

// Stop pauses a task's countdown and removes its registry entry.
func (t *Timers) Stop(db *sql.DB, id string) (*models.Task, error) {
	if err := store.StopTimer(db, id); err != nil {
		return nil, err
	}
	t.registry.Remove(id)
	return store.GetTask(db, id)
}

// Delete removes a task along with any countdown registered for it, so a
// pending wakeup cannot fire for the deleted id.
func (t *Timers) Delete(db *sql.DB, id string) error {
	if err := store.DeleteTask(db, id); err != nil {
		return err
	}
	t.registry.Remove(id)
	return nil
}

// RunningTimer is one active countdown with its remaining time.
type RunningTimer struct {
	TaskID           string `json:"task_id"`
	Title            string `json:"title"`
	EndsAt           string `json:"ends_at"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// List snapshots the running countdowns at now. Persisted rows are the source
// of truth, so timers started by another process show up too; the registry
// only sharpens the remaining time for countdowns this process owns.
func (t *Timers) List(db *sql.DB, now time.Time) ([]RunningTimer, error) {
	tasks, err := store.ListRunningTimers(db)
	if err != nil {
		return nil, err
	}

	out := make([]RunningTimer, 0, len(tasks))
	for _, task := range tasks {
		var remaining time.Duration
		if _, ok := t.registry.Get(task.ID); ok {
			remaining = t.registry.Remaining(task.ID, now)
		} else if endsAt, parseErr := time.Parse(time.RFC3339, task.TimerEndsAt); parseErr == nil {
			if d := endsAt.Sub(now); d > 0 {
				remaining = d
			}
		}
		out = append(out, RunningTimer{
			TaskID:           task.ID,
			Title:            task.Title,
			EndsAt:           task.TimerEndsAt,
			RemainingSeconds: int(remaining / time.Second),
		})
	}
	return out, nil
}
