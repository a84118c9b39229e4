package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/output"
	"github.com/dayrally/dayrally/internal/store"
)

// NewPersonCmd creates the person command group
func NewPersonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage check-in people",
		Long:  "People you check in with. Valid relationships: manager, report, peer",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newPersonListCmd())
	cmd.AddCommand(newPersonAddCmd())
	cmd.AddCommand(newPersonUpdateCmd())
	cmd.AddCommand(newPersonDeleteCmd())
	return cmd
}

func newPersonListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List people by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			var people []*models.CheckinPerson
			if err := withDB(func(db *DB) error {
				p, err := store.ListPeople(db)
				if err != nil {
					return err
				}
				people = p
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				People []*models.CheckinPerson `json:"people"`
			}
			return output.PrintSuccess(resp{People: people})
		},
	}
}

func newPersonAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			relationship, _ := cmd.Flags().GetString("relationship")
			if name == "" {
				return cmdErr(errors.New("--name is required"))
			}

			var person *models.CheckinPerson
			if err := withDB(func(db *DB) error {
				p, err := store.CreatePerson(db, models.CheckinPersonInput{Name: name, Relationship: relationship})
				if err != nil {
					return err
				}
				person = p
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Person *models.CheckinPerson `json:"person"`
			}
			return output.PrintSuccess(resp{Person: person})
		},
	}

	cmd.Flags().String("name", "", "Person name (required)")
	cmd.Flags().String("relationship", "peer", "Relationship: manager|report|peer")
	return cmd
}

func newPersonUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a person's name or relationship",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			name, _ := cmd.Flags().GetString("name")
			relationship, _ := cmd.Flags().GetString("relationship")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var person *models.CheckinPerson
			if err := withDB(func(db *DB) error {
				p, err := store.UpdatePerson(db, id, models.CheckinPersonInput{Name: name, Relationship: relationship})
				if err != nil {
					return err
				}
				person = p
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Person *models.CheckinPerson `json:"person"`
			}
			return output.PrintSuccess(resp{Person: person})
		},
	}

	cmd.Flags().String("id", "", "Person ID (required)")
	cmd.Flags().String("name", "", "Person name")
	cmd.Flags().String("relationship", "peer", "Relationship: manager|report|peer")
	return cmd
}

func newPersonDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a person and their check-in history",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			if err := withDB(func(db *DB) error {
				return store.DeletePerson(db, id)
			}); err != nil {
				return err
			}

			type resp struct {
				Deleted string `json:"deleted"`
			}
			return output.PrintSuccess(resp{Deleted: id})
		},
	}

	cmd.Flags().String("id", "", "Person ID (required)")
	return cmd
}

// NewCheckinCmd creates the checkin command group
func NewCheckinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Record and query check-ins",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newCheckinAddCmd())
	cmd.AddCommand(newCheckinListCmd())
	cmd.AddCommand(newCheckinGetCmd())
	cmd.AddCommand(newCheckinUpdateCmd())
	cmd.AddCommand(newCheckinDeleteCmd())
	cmd.AddCommand(newCheckinRemindersCmd())
	return cmd
}

func checkinInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("person-id", "", "Person ID (required)")
	cmd.Flags().String("date", "", "Check-in date YYYY-MM-DD (default: today)")
	cmd.Flags().String("discussion", "", "What was discussed")
	cmd.Flags().String("notes", "", "Additional notes")
	cmd.Flags().String("action-items", "", "Agreed action items")
	cmd.Flags().String("next-date", "", "Next check-in date YYYY-MM-DD")
	cmd.Flags().Bool("remind", false, "Enable a reminder for the next check-in")
	cmd.Flags().String("remind-at", "", "Reminder time HH:MM")
}

func checkinInputFromFlags(flags *pflag.FlagSet) models.CheckinInput {
	personID, _ := flags.GetString("person-id")
	date, _ := flags.GetString("date")
	discussion, _ := flags.GetString("discussion")
	notes, _ := flags.GetString("notes")
	actionItems, _ := flags.GetString("action-items")
	nextDate, _ := flags.GetString("next-date")
	remind, _ := flags.GetBool("remind")
	remindAt, _ := flags.GetString("remind-at")

	if date == "" {
		date = today()
	}

	return models.CheckinInput{
		PersonID:        personID,
		CheckinDate:     date,
		Discussion:      discussion,
		Notes:           notes,
		ActionItems:     actionItems,
		NextCheckinDate: nextDate,
		ReminderEnabled: remind,
		ReminderTime:    remindAt,
	}
}

func newCheckinAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a check-in",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := checkinInputFromFlags(cmd.Flags())
			if input.PersonID == "" {
				return cmdErr(errors.New("--person-id is required"))
			}

			var checkin *models.Checkin
			if err := withDB(func(db *DB) error {
				c, err := store.CreateCheckin(db, input)
				if err != nil {
					return err
				}
				checkin = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Checkin *models.Checkin `json:"checkin"`
			}
			return output.PrintSuccess(resp{Checkin: checkin})
		},
	}

	checkinInputFlags(cmd)
	return cmd
}

func newCheckinListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a person's check-ins, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			personID, _ := cmd.Flags().GetString("person-id")
			if personID == "" {
				return cmdErr(errors.New("--person-id is required"))
			}

			var checkins []*models.Checkin
			if err := withDB(func(db *DB) error {
				c, err := store.ListCheckins(db, personID)
				if err != nil {
					return err
				}
				checkins = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Checkins []*models.Checkin `json:"checkins"`
			}
			return output.PrintSuccess(resp{Checkins: checkins})
		},
	}

	cmd.Flags().String("person-id", "", "Person ID (required)")
	return cmd
}

func newCheckinGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch a check-in by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var checkin *models.Checkin
			if err := withDB(func(db *DB) error {
				c, err := store.GetCheckin(db, id)
				if err != nil {
					return err
				}
				checkin = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Checkin *models.Checkin `json:"checkin"`
			}
			return output.PrintSuccess(resp{Checkin: checkin})
		},
	}

	cmd.Flags().String("id", "", "Check-in ID (required)")
	return cmd
}

func newCheckinUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace a check-in's fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}
			input := checkinInputFromFlags(cmd.Flags())
			if input.PersonID == "" {
				return cmdErr(errors.New("--person-id is required"))
			}

			var checkin *models.Checkin
			if err := withDB(func(db *DB) error {
				c, err := store.UpdateCheckin(db, id, input)
				if err != nil {
					return err
				}
				checkin = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Checkin *models.Checkin `json:"checkin"`
			}
			return output.PrintSuccess(resp{Checkin: checkin})
		},
	}

	cmd.Flags().String("id", "", "Check-in ID (required)")
	checkinInputFlags(cmd)
	return cmd
}

func newCheckinDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a check-in",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			if err := withDB(func(db *DB) error {
				return store.DeleteCheckin(db, id)
			}); err != nil {
				return err
			}

			type resp struct {
				Deleted string `json:"deleted"`
			}
			return output.PrintSuccess(resp{Deleted: id})
		},
	}

	cmd.Flags().String("id", "", "Check-in ID (required)")
	return cmd
}

func newCheckinRemindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List reminders due right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			markSent, _ := cmd.Flags().GetBool("mark-sent")

			var due []*models.CheckinReminder
			if err := withDB(func(db *DB) error {
				d, err := store.ListDueReminders(db, time.Now())
				if err != nil {
					return err
				}
				due = d
				if !markSent {
					return nil
				}
				for _, r := range d {
					if err := store.MarkReminderSent(db, r.CheckinID); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Reminders []*models.CheckinReminder `json:"reminders"`
			}
			return output.PrintSuccess(resp{Reminders: due})
		},
	}

	cmd.Flags().Bool("mark-sent", false, "Mark the listed reminders as sent")
	return cmd
}
