package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dayrally/dayrally/internal/actions"
	"github.com/dayrally/dayrally/internal/app"
	"github.com/dayrally/dayrally/internal/output"
)

// NewWorkspaceCmd creates the workspace command group
func NewWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Inspect or set the active workspace directory",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newWorkspaceGetCmd())
	cmd.AddCommand(newWorkspaceSetCmd())
	return cmd
}

func newWorkspaceGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the resolved workspace directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace, err := app.WorkspaceDir()
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Workspace string `json:"workspace"`
			}
			return output.PrintSuccess(resp{Workspace: workspace})
		},
	}
}

func newWorkspaceSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Initialize a workspace directory and persist it to config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("path")
			if path == "" {
				return cmdErr(errors.New("--path is required"))
			}

			if err := actions.SetWorkspace(path); err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Workspace string `json:"workspace"`
			}
			return output.PrintSuccess(resp{Workspace: path})
		},
	}

	cmd.Flags().String("path", "", "Workspace directory (required)")
	return cmd
}
