package commands

import (
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dayrally/dayrally/internal/actions"
	"github.com/dayrally/dayrally/internal/app"
	"github.com/dayrally/dayrally/internal/sched"
	"github.com/dayrally/dayrally/internal/store"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background scheduler (midnight sweep + reminder scanner)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			open := func() (*sql.DB, error) {
				workspace, err := app.WorkspaceDir()
				if err != nil {
					return nil, err
				}
				return store.Open(workspace)
			}

			service := sched.NewService(open, sched.LogNotifier{Logger: logger}, logger)
			service.Sweep = func(db *sql.DB, today string) error {
				result, err := actions.Overview(db, today)
				if err != nil {
					return err
				}
				if result.RolledOver > 0 {
					logger.Info("rolled over tasks", "count", result.RolledOver, "date", today)
				}
				return nil
			}

			if err := service.Start(); err != nil {
				return cmdErr(err)
			}
			logger.Info("scheduler running", "pid", os.Getpid())

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.Info("shutting down")
			service.Stop()
			return nil
		},
	}
}
