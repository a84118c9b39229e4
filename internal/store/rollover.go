package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/recur"
)

// RolloverTasks carries every overdue, unfinished task forward to today,
// flagging it as rolled over and placing it at the end of the
// (today, rolled_over) partition. Tasks already targeted at today are not
// selected, so running the sweep twice in the same day is a no-op.
// rolled_from_date records the date the task was last due, not its original
// date: a task rolled repeatedly keeps only yesterday's date.
func RolloverTasks(db *sql.DB, today string) (int, error) {
	count := 0
	err := Transact(db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(context.Background(),
			`SELECT id, target_date FROM tasks WHERE target_date < ? AND status != ?`,
			today, string(models.TaskStatusDone))
		if err != nil {
			return fmt.Errorf("failed to select overdue tasks: %w", err)
		}

		type overdue struct{ id, fromDate string }
		var pending []overdue
		func() {
			defer func() { _ = rows.Close() }()
			for rows.Next() {
				var o overdue
				if scanErr := rows.Scan(&o.id, &o.fromDate); scanErr != nil {
					err = fmt.Errorf("failed to scan overdue task: %w", scanErr)
					return
				}
				pending = append(pending, o)
			}
			if rowsErr := rows.Err(); rowsErr != nil {
				err = fmt.Errorf("error iterating overdue tasks: %w", rowsErr)
			}
		}()
		if err != nil {
			return err
		}

		now := nowRFC3339()
		for _, o := range pending {
			sortOrder, err := nextSortOrderTx(tx, today, true)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(context.Background(), `
				UPDATE tasks SET target_date = ?, rolled_over = 1, rolled_from_date = ?,
					sort_order = ?, updated_at = ?
				WHERE id = ?
			`, today, o.fromDate, sortOrder, now, o.id); err != nil {
				return fmt.Errorf("failed to roll over task %s: %w", o.id, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// EnsureRecurrences makes one pass over all recurring tasks, handling two
// independent cases:
//
//  1. a done recurring task whose next occurrence was never generated gets
//     one (covers tasks completed before the sweep ran, e.g. across a
//     restart);
//  2. a non-done recurring task whose target_date fell behind today is
//     advanced in place, repeatedly, until it reaches or passes today. This
//     moves the original row forward rather than cloning it: the slot was
//     simply never actioned.
func EnsureRecurrences(db *sql.DB, today string) error {
	todayDate, err := recur.ParseDate(today)
	if err != nil {
		return err
	}

	return Transact(db, func(tx *sql.Tx) error {
		tasks, err := listTasksByQuery(tx,
			`SELECT `+taskColumns+` FROM tasks WHERE is_recurring = 1`)
		if err != nil {
			return err
		}

		for _, task := range tasks {
			if task.RecurrenceType == "" {
				continue
			}

			if task.Status == string(models.TaskStatusDone) {
				if err := generateNextOccurrenceTx(tx, task); err != nil {
					return err
				}
				continue
			}

			date, err := recur.ParseDate(task.TargetDate)
			if err != nil {
				return err
			}
			if !date.Before(todayDate) {
				continue
			}

			rule := taskRule(task)
			for date.Before(todayDate) {
				date = recur.NextOccurrence(rule, date)
			}

			dateStr := recur.FormatDate(date)
			sortOrder, err := nextSortOrderTx(tx, dateStr, task.RolledOver)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(context.Background(),
				`UPDATE tasks SET target_date = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
				dateStr, sortOrder, nowRFC3339(), task.ID); err != nil {
				return fmt.Errorf("failed to advance recurring task %s: %w", task.ID, err)
			}
		}
		return nil
	})
}

// CompleteTask marks a task done and, if it recurs, generates the next
// occurrence in the same transaction. The completion-triggered path and the
// EnsureRecurrences sweep share the same dedup guard, so whichever runs first
// wins and the other is a no-op.
func CompleteTask(db *sql.DB, id string) (*models.Task, error) {
	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		done, err := updateTaskStatusTx(tx, id, string(models.TaskStatusDone))
		if err != nil {
			return err
		}
		task = done
		if done.IsRecurring && done.RecurrenceType != "" {
			return generateNextOccurrenceTx(tx, done)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func taskRule(task *models.Task) recur.Rule {
	return recur.Rule{
		Type:     recur.Type(task.RecurrenceType),
		Interval: task.RecurrenceInterval,
		Weekdays: recur.ParseWeekdays(task.RecurrenceWeekdays),
	}
}

// generateNextOccurrenceTx inserts the next occurrence of a recurring task
// unless one with the same recurrence signature already targets that date.
func generateNextOccurrenceTx(tx *sql.Tx, source *models.Task) error {
	anchor, err := recur.ParseDate(source.TargetDate)
	if err != nil {
		return err
	}
	nextDate := recur.FormatDate(recur.NextOccurrence(taskRule(source), anchor))

	exists, err := hasRecurringOccurrenceTx(tx, source, nextDate)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return insertNextOccurrenceTx(tx, source, nextDate)
}

// hasRecurringOccurrenceTx is the dedup guard: a recurring task occurrence is
// identified by (title, recurrence_type, recurrence_interval,
// recurrence_weekdays, target_date).
func hasRecurringOccurrenceTx(tx *sql.Tx, task *models.Task, date string) (bool, error) {
	var id string
	err := tx.QueryRowContext(context.Background(), `
		SELECT id FROM tasks
		WHERE title = ? AND target_date = ? AND is_recurring = 1
		  AND COALESCE(recurrence_type, '') = ?
		  AND COALESCE(recurrence_interval, 1) = ?
		  AND COALESCE(recurrence_weekdays, '') = ?
		LIMIT 1
	`, task.Title, date, task.RecurrenceType, task.RecurrenceInterval, task.RecurrenceWeekdays,
	).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check for existing occurrence: %w", err)
}

// insertNextOccurrenceTx clones the recurring task onto nextDate: fresh todo
// status and progress, inherited title/notes/deadline/timer config/tags, and
// a new position at the end of the destination partition.
func insertNextOccurrenceTx(tx *sql.Tx, source *models.Task, nextDate string) error {
	id := newID()
	now := nowRFC3339()

	sortOrder, err := nextSortOrderTx(tx, nextDate, false)
	if err != nil {
		return err
	}

	tags := NormalizeTags(source.Tags)
	var timerState any
	if source.TimerEnabled {
		timerState = string(models.TimerIdle)
	}
	interval := source.RecurrenceInterval
	if interval < 1 {
		interval = 1
	}

	_, err = tx.ExecContext(context.Background(), `
		INSERT INTO tasks (id, title, notes, target_date, status, progress_percent, deadline_at,
			is_recurring, recurrence_type, recurrence_interval, recurrence_weekdays,
			timer_enabled, timer_minutes, timer_state, timer_ends_at,
			rolled_over, rolled_from_date, tags, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'todo', 0, ?, 1, ?, ?, ?, ?, ?, ?, NULL, 0, NULL, ?, ?, ?, ?)
	`, id, source.Title, nullable(source.Notes), nextDate, nullable(source.DeadlineAt),
		nullable(source.RecurrenceType), interval, nullable(source.RecurrenceWeekdays),
		boolToInt(source.TimerEnabled), nullableInt(source.TimerMinutes), timerState,
		TagsToCSV(tags), sortOrder, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert next occurrence: %w", err)
	}

	return syncTaskTagsTx(tx, id, tags)
}
