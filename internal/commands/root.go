package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dayrally/dayrally/internal/app"
	"github.com/dayrally/dayrally/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "dayrally",
		Short:         "Daily planning workspace (tasks, rollover, notes, check-ins)",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}

			// Wire --workspace into app-level resolver.
			if workspace, err := cmd.Flags().GetString("workspace"); err == nil && workspace != "" {
				app.SetWorkspaceOverride(workspace)
			}

			return nil
		},
	}

	root.PersistentFlags().String("workspace", "", "Override workspace directory (default: $DAYRALLY_WORKSPACE or config.yaml)")
	root.Flags().BoolP("version", "v", false, "version for dayrally")

	root.AddCommand(NewWorkspaceCmd())
	root.AddCommand(NewTaskCmd())
	root.AddCommand(NewNoteCmd())
	root.AddCommand(NewFolderCmd())
	root.AddCommand(NewPersonCmd())
	root.AddCommand(NewCheckinCmd())
	root.AddCommand(NewTimerCmd())
	root.AddCommand(NewServeCmd())

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}
