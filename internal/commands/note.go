package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dayrally/dayrally/internal/actions"
	"github.com/dayrally/dayrally/internal/app"
	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/output"
	"github.com/dayrally/dayrally/internal/store"
)

// NewNoteCmd creates the note command group
func NewNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage markdown notes",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newNoteListCmd())
	cmd.AddCommand(newNoteGetCmd())
	cmd.AddCommand(newNoteCreateCmd())
	cmd.AddCommand(newNoteUpdateCmd())
	cmd.AddCommand(newNoteDeleteCmd())
	cmd.AddCommand(newNoteAttachCmd())
	cmd.AddCommand(newNoteAttachmentsCmd())
	return cmd
}

func noteInputFromFlags(flags *pflag.FlagSet) models.NoteInput {
	title, _ := flags.GetString("title")
	body, _ := flags.GetString("body")
	tags, _ := flags.GetStringSlice("tags")
	folderID, _ := flags.GetString("folder-id")

	return models.NoteInput{
		Title:        title,
		BodyMarkdown: body,
		Tags:         tags,
		FolderID:     folderID,
	}
}

func noteInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Note title (blank becomes \"Untitled note\")")
	cmd.Flags().String("body", "", "Markdown body")
	cmd.Flags().StringSlice("tags", nil, "Tags (repeatable or comma-separated)")
	cmd.Flags().String("folder-id", "", "Folder to file the note under")
}

func newNoteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var notes []*models.Note
			if err := withDB(func(db *DB) error {
				n, err := store.ListNotes(db)
				if err != nil {
					return err
				}
				notes = n
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Notes []*models.Note `json:"notes"`
			}
			return output.PrintSuccess(resp{Notes: notes})
		},
	}
}

func newNoteGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch a note by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var note *models.Note
			if err := withDB(func(db *DB) error {
				n, err := store.GetNote(db, id)
				if err != nil {
					return err
				}
				note = n
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Note *models.Note `json:"note"`
			}
			return output.PrintSuccess(resp{Note: note})
		},
	}

	cmd.Flags().String("id", "", "Note ID (required)")
	return cmd
}

func newNoteCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := noteInputFromFlags(cmd.Flags())

			var note *models.Note
			if err := withDB(func(db *DB) error {
				n, err := store.CreateNote(db, input)
				if err != nil {
					return err
				}
				note = n
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Note *models.Note `json:"note"`
			}
			return output.PrintSuccess(resp{Note: note})
		},
	}

	noteInputFlags(cmd)
	return cmd
}

func newNoteUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace a note's fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}
			input := noteInputFromFlags(cmd.Flags())

			var note *models.Note
			if err := withDB(func(db *DB) error {
				n, err := store.UpdateNote(db, id, input)
				if err != nil {
					return err
				}
				note = n
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Note *models.Note `json:"note"`
			}
			return output.PrintSuccess(resp{Note: note})
		},
	}

	cmd.Flags().String("id", "", "Note ID (required)")
	noteInputFlags(cmd)
	return cmd
}

func newNoteDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			if err := withDB(func(db *DB) error {
				return store.DeleteNote(db, id)
			}); err != nil {
				return err
			}

			type resp struct {
				Deleted string `json:"deleted"`
			}
			return output.PrintSuccess(resp{Deleted: id})
		},
	}

	cmd.Flags().String("id", "", "Note ID (required)")
	return cmd
}

func newNoteAttachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Attach an image file to a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			file, _ := cmd.Flags().GetString("file")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}
			if file == "" {
				return cmdErr(errors.New("--file is required"))
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return cmdErr(err)
			}
			workspace, err := app.WorkspaceDir()
			if err != nil {
				return cmdErr(err)
			}

			var attachment *models.NoteAttachment
			if err := withDB(func(db *DB) error {
				a, err := actions.AttachImageToNote(db, workspace, id, data)
				if err != nil {
					return err
				}
				attachment = a
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Attachment *models.NoteAttachment `json:"attachment"`
			}
			return output.PrintSuccess(resp{Attachment: attachment})
		},
	}

	cmd.Flags().String("id", "", "Note ID (required)")
	cmd.Flags().String("file", "", "Path to the image file (required)")
	return cmd
}

func newNoteAttachmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attachments",
		Short: "List a note's attachments",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var attachments []*models.NoteAttachment
			if err := withDB(func(db *DB) error {
				a, err := store.ListNoteAttachments(db, id)
				if err != nil {
					return err
				}
				attachments = a
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Attachments []*models.NoteAttachment `json:"attachments"`
			}
			return output.PrintSuccess(resp{Attachments: attachments})
		},
	}

	cmd.Flags().String("id", "", "Note ID (required)")
	return cmd
}

// NewFolderCmd creates the folder command group
func NewFolderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage note folders",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newFolderListCmd())
	cmd.AddCommand(newFolderCreateCmd())
	cmd.AddCommand(newFolderDeleteCmd())
	return cmd
}

func newFolderListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List folders by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			var folders []*models.NoteFolder
			if err := withDB(func(db *DB) error {
				f, err := store.ListNoteFolders(db)
				if err != nil {
					return err
				}
				folders = f
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Folders []*models.NoteFolder `json:"folders"`
			}
			return output.PrintSuccess(resp{Folders: folders})
		},
	}
}

func newFolderCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return cmdErr(errors.New("--name is required"))
			}

			var folder *models.NoteFolder
			if err := withDB(func(db *DB) error {
				f, err := store.CreateNoteFolder(db, name)
				if err != nil {
					return err
				}
				folder = f
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Folder *models.NoteFolder `json:"folder"`
			}
			return output.PrintSuccess(resp{Folder: folder})
		},
	}

	cmd.Flags().String("name", "", "Folder name (required)")
	return cmd
}

func newFolderDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a folder (its notes are unfiled, not deleted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			if err := withDB(func(db *DB) error {
				return store.DeleteNoteFolder(db, id)
			}); err != nil {
				return err
			}

			type resp struct {
				Deleted string `json:"deleted"`
			}
			return output.PrintSuccess(resp{Deleted: id})
		},
	}

	cmd.Flags().String("id", "", "Folder ID (required)")
	return cmd
}
