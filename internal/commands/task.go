package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dayrally/dayrally/internal/actions"
	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/output"
	"github.com/dayrally/dayrally/internal/store"
)

// NewTaskCmd creates the task command group
func NewTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Create, update, and query tasks. Valid statuses: todo, in_progress, done",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	cmd.AddCommand(newTaskSetStatusCmd())
	cmd.AddCommand(newTaskDoneCmd())
	cmd.AddCommand(newTaskGetCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	cmd.AddCommand(newTaskMoveCmd())
	cmd.AddCommand(newTaskReorderCmd())
	cmd.AddCommand(newTaskOverviewCmd())
	cmd.AddCommand(newTaskTodayCmd())
	cmd.AddCommand(newTaskTagsCmd())
	return cmd
}

// taskInputFlags registers the flags shared by create and update.
func taskInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Task title (required)")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().String("date", "", "Target date YYYY-MM-DD (default: today)")
	cmd.Flags().String("status", string(models.TaskStatusTodo), "Status: todo|in_progress|done")
	cmd.Flags().Int("progress", 0, "Progress percent (0-100)")
	cmd.Flags().String("deadline", "", "Hard deadline timestamp (RFC 3339)")
	cmd.Flags().StringSlice("tags", nil, "Tags (repeatable or comma-separated)")
	cmd.Flags().String("recur", "", "Recurrence: daily|weekly|monthly")
	cmd.Flags().Int("every", 1, "Recurrence interval")
	cmd.Flags().String("weekdays", "", "Weekly recurrence weekdays, e.g. Mon,Wed,Fri")
	cmd.Flags().Bool("timer", false, "Enable the countdown timer")
	cmd.Flags().Int("minutes", 25, "Timer length in minutes")
}

func taskInputFromFlags(flags *pflag.FlagSet) models.TaskInput {
	title, _ := flags.GetString("title")
	notes, _ := flags.GetString("notes")
	date, _ := flags.GetString("date")
	status, _ := flags.GetString("status")
	progress, _ := flags.GetInt("progress")
	deadline, _ := flags.GetString("deadline")
	tags, _ := flags.GetStringSlice("tags")
	recurType, _ := flags.GetString("recur")
	every, _ := flags.GetInt("every")
	weekdays, _ := flags.GetString("weekdays")
	timerEnabled, _ := flags.GetBool("timer")
	minutes, _ := flags.GetInt("minutes")

	if date == "" {
		date = today()
	}

	return models.TaskInput{
		Title:              title,
		Notes:              notes,
		Tags:               tags,
		TargetDate:         date,
		Status:             status,
		ProgressPercent:    progress,
		DeadlineAt:         deadline,
		IsRecurring:        recurType != "",
		RecurrenceType:     recurType,
		RecurrenceInterval: every,
		RecurrenceWeekdays: weekdays,
		TimerEnabled:       timerEnabled,
		TimerMinutes:       minutes,
	}
}

func newTaskCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new task",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := taskInputFromFlags(cmd.Flags())
			if input.Title == "" {
				return cmdErr(errors.New("--title is required"))
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.TaskCreate(db, input)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task *models.Task `json:"task"`
			}
			return output.PrintSuccess(resp{Task: task})
		},
	}

	taskInputFlags(cmd)
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace a task's fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}
			input := taskInputFromFlags(cmd.Flags())
			if input.Title == "" {
				return cmdErr(errors.New("--title is required"))
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.TaskUpdate(db, id, input)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task *models.Task `json:"task"`
			}
			return output.PrintSuccess(resp{Task: task})
		},
	}

	cmd.Flags().String("id", "", "Task ID (required)")
	taskInputFlags(cmd)
	return cmd
}

func newTaskSetStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Update task status (todo|in_progress|done)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			status, _ := cmd.Flags().GetString("status")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}
			if status == "" {
				return cmdErr(errors.New("--status is required"))
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.TaskSetStatus(db, id, status)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task *models.Task `json:"task"`
			}
			return output.PrintSuccess(resp{Task: task})
		},
	}

	cmd.Flags().String("id", "", "Task ID (required)")
	cmd.Flags().String("status", "", "New status (required): todo|in_progress|done")
	return cmd
}

func newTaskDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done",
		Short: "Mark a task done (generates the next occurrence for recurring tasks)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.TaskSetStatus(db, id, string(models.TaskStatusDone))
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task *models.Task `json:"task"`
			}
			return output.PrintSuccess(resp{Task: task})
		},
	}

	cmd.Flags().String("id", "", "Task ID (required)")
	return cmd
}

func newTaskGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch a task by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := store.GetTask(db, id)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task *models.Task `json:"task"`
			}
			return output.PrintSuccess(resp{Task: task})
		},
	}

	cmd.Flags().String("id", "", "Task ID (required)")
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			timers := newTimers()
			if err := withDB(func(db *DB) error {
				return timers.Delete(db, id)
			}); err != nil {
				return err
			}

			type resp struct {
				Deleted string `json:"deleted"`
			}
			return output.PrintSuccess(resp{Deleted: id})
		},
	}

	cmd.Flags().String("id", "", "Task ID (required)")
	return cmd
}

func newTaskMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Nudge a task up or down within its day",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			direction, _ := cmd.Flags().GetString("direction")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			if err := withDB(func(db *DB) error {
				return actions.TaskMove(db, id, direction)
			}); err != nil {
				return err
			}

			type resp struct {
				Moved     string `json:"moved"`
				Direction string `json:"direction"`
			}
			return output.PrintSuccess(resp{Moved: id, Direction: direction})
		},
	}

	cmd.Flags().String("id", "", "Task ID (required)")
	cmd.Flags().String("direction", "up", "Direction: up|down")
	return cmd
}

func newTaskReorderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder",
		Short: "Apply an explicit task ordering",
		RunE: func(cmd *cobra.Command, args []string) error {
			idsFlag, _ := cmd.Flags().GetString("ids")
			ids := splitIDs(idsFlag)
			if len(ids) == 0 {
				return cmdErr(errors.New("--ids is required"))
			}

			if err := withDB(func(db *DB) error {
				return actions.TaskReorder(db, ids)
			}); err != nil {
				return err
			}

			type resp struct {
				Reordered int `json:"reordered"`
			}
			return output.PrintSuccess(resp{Reordered: len(ids)})
		},
	}

	cmd.Flags().String("ids", "", "Comma-separated task IDs in desired order (required)")
	return cmd
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func newTaskOverviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Run the daily sweep and show today / rolled-over / upcoming tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = today()
			}

			var result *actions.OverviewResult
			if err := withDB(func(db *DB) error {
				r, err := actions.Overview(db, date)
				if err != nil {
					return err
				}
				result = r
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(result)
		},
	}

	cmd.Flags().String("date", "", "Day to view, YYYY-MM-DD (default: today)")
	return cmd
}

func newTaskTodayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "List every task targeted at today",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = today()
			}

			var tasks []*models.Task
			if err := withDB(func(db *DB) error {
				t, err := store.ListToday(db, date)
				if err != nil {
					return err
				}
				tasks = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Tasks []*models.Task `json:"tasks"`
			}
			return output.PrintSuccess(resp{Tasks: tasks})
		},
	}

	cmd.Flags().String("date", "", "Day to list, YYYY-MM-DD (default: today)")
	return cmd
}

func newTaskTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List all known tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tags []string
			if err := withDB(func(db *DB) error {
				t, err := store.ListTags(db)
				if err != nil {
					return err
				}
				tags = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Tags []string `json:"tags"`
			}
			return output.PrintSuccess(resp{Tags: tags})
		},
	}
}
