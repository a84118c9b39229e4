package actions

import (
	"database/sql"
	"fmt"

	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/recur"
	"github.com/dayrally/dayrally/internal/store"
)

type invalidTaskStatusError struct {
	Status string
}

func (e invalidTaskStatusError) Error() string {
	return fmt.Sprintf("invalid status '%s'", e.Status)
}

func (e invalidTaskStatusError) SlogAttrs() []any {
	return []any{
		"field", "status",
		"invalid_value", e.Status,
		"valid_options", taskStatusOptions(),
	}
}

// taskStatusOptions returns the allowed task status values.
func taskStatusOptions() []string {
	return []string{
		string(models.TaskStatusTodo),
		string(models.TaskStatusInProgress),
		string(models.TaskStatusDone),
	}
}

// isValidTaskStatus returns true if s is a known task status.
func isValidTaskStatus(s string) bool {
	switch models.TaskStatus(s) {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
		return true
	}
	return false
}

func validateTaskStatus(status string) error {
	if !isValidTaskStatus(status) {
		return invalidTaskStatusError{Status: status}
	}
	return nil
}

func isValidRecurrenceType(s string) bool {
	switch models.RecurrenceType(s) {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
		return true
	}
	return false
}

// validateTaskInput checks the cross-field rules shared by create and update.
func validateTaskInput(input *models.TaskInput) error {
	if input.Title == "" {
		return models.Validationf("task title cannot be empty")
	}
	if input.Status == "" {
		input.Status = string(models.TaskStatusTodo)
	}
	if err := validateTaskStatus(input.Status); err != nil {
		return err
	}
	if _, err := recur.ParseDate(input.TargetDate); err != nil {
		return models.Validationf("invalid target_date %q: expected YYYY-MM-DD", input.TargetDate)
	}
	if input.IsRecurring && !isValidRecurrenceType(input.RecurrenceType) {
		return models.Validationf("invalid recurrence type %q", input.RecurrenceType)
	}
	if input.IsRecurring && input.RecurrenceType == string(models.RecurrenceWeekly) &&
		len(recur.ParseWeekdays(input.RecurrenceWeekdays)) == 0 && input.RecurrenceWeekdays != "" {
		return models.Validationf("invalid recurrence weekdays %q", input.RecurrenceWeekdays)
	}
	return nil
}

// TaskCreate validates and inserts a new task.
func TaskCreate(db *sql.DB, input models.TaskInput) (*models.Task, error) {
	if err := validateTaskInput(&input); err != nil {
		return nil, err
	}
	return store.CreateTask(db, input)
}

// TaskUpdate validates and replaces a task's fields.
func TaskUpdate(db *sql.DB, id string, input models.TaskInput) (*models.Task, error) {
	if err := validateTaskInput(&input); err != nil {
		return nil, err
	}
	return store.UpdateTask(db, id, input)
}

// TaskSetStatus sets a task's status. Marking a recurring task done also
// generates its next occurrence.
func TaskSetStatus(db *sql.DB, id, status string) (*models.Task, error) {
	if err := validateTaskStatus(status); err != nil {
		return nil, err
	}
	if status == string(models.TaskStatusDone) {
		return store.CompleteTask(db, id)
	}
	return store.UpdateTaskStatus(db, id, status)
}

// TaskMove nudges a task one position up or down within its partition.
func TaskMove(db *sql.DB, id, direction string) error {
	if direction != store.MoveUp && direction != store.MoveDown {
		return models.Validationf("invalid move direction %q (use up or down)", direction)
	}
	return store.MoveTask(db, id, direction)
}

// TaskReorder applies an explicit ordering to a list of task ids.
func TaskReorder(db *sql.DB, ids []string) error {
	if len(ids) == 0 {
		return models.Validationf("reorder requires at least one task id")
	}
	return store.ReorderTasks(db, ids)
}

// OverviewResult is the daily view plus what the pre-view sweep did.
type OverviewResult struct {
	RolledOver int                  `json:"rolled_over_count"`
	Overview   *models.TaskOverview `json:"overview"`
}

// Overview runs the daily sweep and returns the partitioned task view for
// today. The sweep order matters: rollover first so a recurring task that is
// both overdue and recurring is carried forward before the recurrence pass
// advances it.
func Overview(db *sql.DB, today string) (*OverviewResult, error) {
	if _, err := recur.ParseDate(today); err != nil {
		return nil, models.Validationf("invalid date %q: expected YYYY-MM-DD", today)
	}

	rolled, err := store.RolloverTasks(db, today)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureRecurrences(db, today); err != nil {
		return nil, err
	}

	overview, err := store.ListOverview(db, today)
	if err != nil {
		return nil, err
	}
	return &OverviewResult{RolledOver: rolled, Overview: overview}, nil
}
