package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dayrally/dayrally/internal/models"
)

// The timer columns are the persisted source of truth for countdown state.
// The in-memory registry only caches which tasks are currently counting down.

// StartTimer marks a task's timer running until endsAt (RFC 3339).
func StartTimer(db *sql.DB, id, endsAt string) error {
	return setTimerState(db, id, models.TimerRunning, endsAt)
}

// StopTimer pauses a task's timer and clears its expiry.
func StopTimer(db *sql.DB, id string) error {
	return setTimerState(db, id, models.TimerPaused, "")
}

// FinishTimer marks a task's timer finished and clears its expiry.
func FinishTimer(db *sql.DB, id string) error {
	return setTimerState(db, id, models.TimerFinished, "")
}

// ListRunningTimers returns tasks whose persisted timer is counting down.
func ListRunningTimers(db *sql.DB) ([]*models.Task, error) {
	return listTasksByQuery(db,
		`SELECT `+taskColumns+` FROM tasks WHERE timer_state = ? ORDER BY timer_ends_at ASC`,
		string(models.TimerRunning))
}

func setTimerState(db *sql.DB, id string, state models.TimerState, endsAt string) error {
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(),
			`UPDATE tasks SET timer_state = ?, timer_ends_at = ?, updated_at = ? WHERE id = ?`,
			string(state), nullable(endsAt), nowRFC3339(), id)
		if err != nil {
			return fmt.Errorf("failed to set timer state: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "task", ID: id}
		}
		return nil
	})
}
