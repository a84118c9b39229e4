package commands

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayrally/dayrally/internal/actions"
	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/output"
	"github.com/dayrally/dayrally/internal/sched"
	"github.com/dayrally/dayrally/internal/store"
	"github.com/dayrally/dayrally/internal/timer"
)

// NewTimerCmd creates the timer command group
func NewTimerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Control task countdown timers",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newTimerStartCmd())
	cmd.AddCommand(newTimerStopCmd())
	cmd.AddCommand(newTimerListCmd())
	return cmd
}

func newTimers() *actions.Timers {
	logger := slog.Default()
	return actions.NewTimers(timer.NewRegistry(), sched.LogNotifier{Logger: logger}, logger)
}

func newTimerStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a task's countdown",
		Long:  "Start a task's countdown. With --wait, block until the timer finishes and fire the notification; otherwise the persisted timer state is picked up by a running serve process.",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			wait, _ := cmd.Flags().GetBool("wait")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			timers := newTimers()
			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := timers.Start(db, id, time.Now())
				if err != nil {
					return err
				}
				task = t
				if wait {
					endsAt, parseErr := time.Parse(time.RFC3339, t.TimerEndsAt)
					if parseErr != nil {
						return parseErr
					}
					// Sleep past expiry; the wakeup goroutine finishes the
					// timer and fires the notification.
					time.Sleep(time.Until(endsAt) + time.Second)
					if finished, getErr := store.GetTask(db, id); getErr == nil {
						task = finished
					}
				}
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
	cmd.Flags().Bool("wait", false, "Block until the countdown finishes")
	return cmd
}

func newTimerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List running timers with remaining seconds",
		RunE: func(cmd *cobra.Command, args []string) error {
			timers := newTimers()
			var running []actions.RunningTimer
			if err := withDB(func(db *DB) error {
				r, err := timers.List(db, time.Now())
				if err != nil {
					return err
				}
				running = r
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Timers []actions.RunningTimer `json:"timers"`
			}
			return output.PrintSuccess(resp{Timers: running})
		},
	}
}

func newTimerStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Pause a task's countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			timers := newTimers()
			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := timers.Stop(db, id)
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
