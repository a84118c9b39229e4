package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dayrally/dayrally/internal/models"
)

const taskColumns = `id, title, notes, target_date, status, progress_percent, deadline_at,
	is_recurring, recurrence_type, recurrence_interval, recurrence_weekdays,
	timer_enabled, timer_minutes, timer_state, timer_ends_at,
	rolled_over, rolled_from_date, tags, sort_order, created_at, updated_at`

// Move directions accepted by MoveTask.
const (
	MoveUp   = "up"
	MoveDown = "down"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t                  models.Task
		notes              sql.NullString
		deadlineAt         sql.NullString
		recurrenceType     sql.NullString
		recurrenceInterval sql.NullInt64
		recurrenceWeekdays sql.NullString
		timerMinutes       sql.NullInt64
		timerState         sql.NullString
		timerEndsAt        sql.NullString
		rolledFromDate     sql.NullString
		isRecurring        int
		timerEnabled       int
		rolledOver         int
		tagsCSV            string
	)

	err := row.Scan(
		&t.ID, &t.Title, &notes, &t.TargetDate, &t.Status, &t.ProgressPercent, &deadlineAt,
		&isRecurring, &recurrenceType, &recurrenceInterval, &recurrenceWeekdays,
		&timerEnabled, &timerMinutes, &timerState, &timerEndsAt,
		&rolledOver, &rolledFromDate, &tagsCSV, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Notes = scanNullString(notes)
	t.DeadlineAt = scanNullString(deadlineAt)
	t.RecurrenceType = scanNullString(recurrenceType)
	t.RecurrenceInterval = scanNullInt(recurrenceInterval)
	t.RecurrenceWeekdays = scanNullString(recurrenceWeekdays)
	t.TimerMinutes = scanNullInt(timerMinutes)
	t.TimerState = scanNullString(timerState)
	t.TimerEndsAt = scanNullString(timerEndsAt)
	t.RolledFromDate = scanNullString(rolledFromDate)
	t.IsRecurring = isRecurring == 1
	t.TimerEnabled = timerEnabled == 1
	t.RolledOver = rolledOver == 1
	t.Tags = TagsFromCSV(tagsCSV)

	return &t, nil
}

// taskFields is TaskInput after write-time normalization: clamps applied and
// recurrence/timer fields blanked when their feature flag is off.
type taskFields struct {
	progress           int
	isRecurring        int
	recurrenceType     any
	recurrenceInterval int
	recurrenceWeekdays any
	timerEnabled       int
	timerMinutes       any
	timerState         any
}

func normalizeTaskInput(input models.TaskInput) taskFields {
	f := taskFields{
		progress:           clamp(input.ProgressPercent, 0, 100),
		isRecurring:        boolToInt(input.IsRecurring),
		timerEnabled:       boolToInt(input.TimerEnabled),
		recurrenceInterval: 1,
	}

	if input.IsRecurring {
		f.recurrenceType = nullable(input.RecurrenceType)
		if input.RecurrenceInterval > 1 {
			f.recurrenceInterval = input.RecurrenceInterval
		}
		if input.RecurrenceType == string(models.RecurrenceWeekly) {
			f.recurrenceWeekdays = nullable(input.RecurrenceWeekdays)
		}
	}

	if input.TimerEnabled {
		minutes := input.TimerMinutes
		if minutes < 1 {
			minutes = 25
		}
		f.timerMinutes = minutes
		f.timerState = string(models.TimerIdle)
	}

	return f
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nextSortOrderTx returns the next sort_order at the end of the
// (target_date, rolled_over) partition.
func nextSortOrderTx(q Querier, targetDate string, rolledOver bool) (int64, error) {
	var next int64
	err := q.QueryRow(
		`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM tasks WHERE target_date = ? AND rolled_over = ?`,
		targetDate, boolToInt(rolledOver),
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next sort order: %w", err)
	}
	return next, nil
}

// CreateTask inserts a task at the end of its partition's ordering and syncs
// its tag rows in the same transaction.
func CreateTask(db *sql.DB, input models.TaskInput) (*models.Task, error) {
	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		created, err := createTaskTx(tx, input)
		if err != nil {
			return err
		}
		task = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func createTaskTx(tx *sql.Tx, input models.TaskInput) (*models.Task, error) {
	id := newID()
	now := nowRFC3339()

	sortOrder, err := nextSortOrderTx(tx, input.TargetDate, false)
	if err != nil {
		return nil, err
	}

	tags := NormalizeTags(input.Tags)
	f := normalizeTaskInput(input)

	_, err = tx.ExecContext(context.Background(), `
		INSERT INTO tasks (id, title, notes, target_date, status, progress_percent, deadline_at,
			is_recurring, recurrence_type, recurrence_interval, recurrence_weekdays,
			timer_enabled, timer_minutes, timer_state, timer_ends_at,
			rolled_over, rolled_from_date, tags, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, 0, NULL, ?, ?, ?, ?)
	`, id, input.Title, nullable(input.Notes), input.TargetDate, input.Status, f.progress,
		nullable(input.DeadlineAt), f.isRecurring, f.recurrenceType, f.recurrenceInterval,
		f.recurrenceWeekdays, f.timerEnabled, f.timerMinutes, f.timerState,
		TagsToCSV(tags), sortOrder, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	if err := syncTaskTagsTx(tx, id, tags); err != nil {
		return nil, err
	}

	return getTaskByQuerier(tx, id)
}

// UpdateTask replaces all mutable fields. The rollover and timer-countdown
// state is reset: an edited task is treated as freshly planned. The manual
// position is kept only when the task stays in its original, non-rolled
// partition; otherwise it moves to the end of the destination partition.
func UpdateTask(db *sql.DB, id string, input models.TaskInput) (*models.Task, error) {
	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		existing, err := getTaskByQuerier(tx, id)
		if err != nil {
			return err
		}

		sortOrder := existing.SortOrder
		if existing.TargetDate != input.TargetDate || existing.RolledOver {
			sortOrder, err = nextSortOrderTx(tx, input.TargetDate, false)
			if err != nil {
				return err
			}
		}

		tags := NormalizeTags(input.Tags)
		f := normalizeTaskInput(input)

		_, err = tx.ExecContext(context.Background(), `
			UPDATE tasks SET title = ?, notes = ?, target_date = ?, status = ?, progress_percent = ?,
				deadline_at = ?, is_recurring = ?, recurrence_type = ?, recurrence_interval = ?,
				recurrence_weekdays = ?, timer_enabled = ?, timer_minutes = ?, timer_state = ?,
				timer_ends_at = NULL, rolled_over = 0, rolled_from_date = NULL,
				tags = ?, sort_order = ?, updated_at = ?
			WHERE id = ?
		`, input.Title, nullable(input.Notes), input.TargetDate, input.Status, f.progress,
			nullable(input.DeadlineAt), f.isRecurring, f.recurrenceType, f.recurrenceInterval,
			f.recurrenceWeekdays, f.timerEnabled, f.timerMinutes, f.timerState,
			TagsToCSV(tags), sortOrder, nowRFC3339(), id)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		if err := syncTaskTagsTx(tx, id, tags); err != nil {
			return err
		}

		task, err = getTaskByQuerier(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTaskStatus sets a task's status. Completing a task additionally
// re-homes it to the end of its partition's ordering so finished items sink
// to the bottom; other statuses leave the ordering untouched.
func UpdateTaskStatus(db *sql.DB, id, status string) (*models.Task, error) {
	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		var err error
		task, err = updateTaskStatusTx(tx, id, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func updateTaskStatusTx(tx *sql.Tx, id, status string) (*models.Task, error) {
	existing, err := getTaskByQuerier(tx, id)
	if err != nil {
		return nil, err
	}

	now := nowRFC3339()
	if status == string(models.TaskStatusDone) {
		sortOrder, err := nextSortOrderTx(tx, existing.TargetDate, existing.RolledOver)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(context.Background(),
			`UPDATE tasks SET status = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
			status, sortOrder, now, id)
		if err != nil {
			return nil, fmt.Errorf("failed to update task status: %w", err)
		}
	} else {
		_, err = tx.ExecContext(context.Background(),
			`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
			status, now, id)
		if err != nil {
			return nil, fmt.Errorf("failed to update task status: %w", err)
		}
	}

	return getTaskByQuerier(tx, id)
}

// DeleteTask removes a task. Tag join rows cascade with it.
func DeleteTask(db *sql.DB, id string) error {
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(), `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
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

// GetTask retrieves a task by id.
func GetTask(db *sql.DB, id string) (*models.Task, error) {
	return getTaskByQuerier(db, id)
}

func getTaskByQuerier(q Querier, id string) (*models.Task, error) {
	row := q.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "task", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return task, nil
}

// MoveTask swaps sort_order with the nearest neighbor on the requested side
// within the same (target_date, rolled_over) partition. No-op when no
// neighbor exists. Each direction uses a fixed query rather than assembling
// comparator fragments at runtime.
func MoveTask(db *sql.DB, id, direction string) error {
	const neighborUp = `
		SELECT id, sort_order FROM tasks
		WHERE target_date = ? AND rolled_over = ? AND id != ? AND sort_order < ?
		ORDER BY sort_order DESC LIMIT 1`
	const neighborDown = `
		SELECT id, sort_order FROM tasks
		WHERE target_date = ? AND rolled_over = ? AND id != ? AND sort_order > ?
		ORDER BY sort_order ASC LIMIT 1`

	var neighborQuery string
	switch direction {
	case MoveUp:
		neighborQuery = neighborUp
	case MoveDown:
		neighborQuery = neighborDown
	default:
		return models.Validationf("invalid move direction %q", direction)
	}

	return Transact(db, func(tx *sql.Tx) error {
		task, err := getTaskByQuerier(tx, id)
		if err != nil {
			return err
		}

		var neighborID string
		var neighborOrder int64
		err = tx.QueryRowContext(context.Background(), neighborQuery,
			task.TargetDate, boolToInt(task.RolledOver), id, task.SortOrder,
		).Scan(&neighborID, &neighborOrder)
		if errors.Is(err, sql.ErrNoRows) {
			return nil // already at the edge of its partition
		}
		if err != nil {
			return fmt.Errorf("failed to find move neighbor: %w", err)
		}

		now := nowRFC3339()
		if _, err := tx.ExecContext(context.Background(),
			`UPDATE tasks SET sort_order = ?, updated_at = ? WHERE id = ?`,
			neighborOrder, now, id); err != nil {
			return fmt.Errorf("failed to move task: %w", err)
		}
		if _, err := tx.ExecContext(context.Background(),
			`UPDATE tasks SET sort_order = ?, updated_at = ? WHERE id = ?`,
			task.SortOrder, now, neighborID); err != nil {
			return fmt.Errorf("failed to move neighbor: %w", err)
		}
		return nil
	})
}

// ReorderTasks assigns sort_order 1..n by position in ids. The caller is
// responsible for passing ids from one coherent partition.
func ReorderTasks(db *sql.DB, ids []string) error {
	return Transact(db, func(tx *sql.Tx) error {
		now := nowRFC3339()
		for i, id := range ids {
			if _, err := tx.ExecContext(context.Background(),
				`UPDATE tasks SET sort_order = ?, updated_at = ? WHERE id = ?`,
				int64(i)+1, now, id); err != nil {
				return fmt.Errorf("failed to reorder task %s: %w", id, err)
			}
		}
		return nil
	})
}

// ListToday returns every task targeted at the given day, both partitions.
func ListToday(db *sql.DB, today string) ([]*models.Task, error) {
	return listTasksByQuery(db,
		`SELECT `+taskColumns+` FROM tasks WHERE target_date = ? ORDER BY sort_order ASC, created_at ASC`,
		today)
}

// ListOverview partitions tasks into today's planned work, today's
// rolled-over work, and upcoming future-dated tasks.
func ListOverview(db *sql.DB, today string) (*models.TaskOverview, error) {
	todayTasks, err := listTasksByQuery(db,
		`SELECT `+taskColumns+` FROM tasks WHERE target_date = ? AND rolled_over = 0 ORDER BY sort_order ASC, created_at ASC`,
		today)
	if err != nil {
		return nil, err
	}

	rolled, err := listTasksByQuery(db,
		`SELECT `+taskColumns+` FROM tasks WHERE target_date = ? AND rolled_over = 1 ORDER BY sort_order ASC, created_at ASC`,
		today)
	if err != nil {
		return nil, err
	}

	upcoming, err := listTasksByQuery(db,
		`SELECT `+taskColumns+` FROM tasks WHERE target_date > ? ORDER BY target_date ASC, sort_order ASC, created_at ASC`,
		today)
	if err != nil {
		return nil, err
	}

	return &models.TaskOverview{Today: todayTasks, RolledOver: rolled, Upcoming: upcoming}, nil
}

func listTasksByQuery(q Querier, query string, args ...any) ([]*models.Task, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*models.Task
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", scanErr)
		}
		tasks = append(tasks, task)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", rowsErr)
	}
	return tasks, nil
}
