package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dayrally/dayrally/internal/models"
	"github.com/dayrally/dayrally/internal/recur"
)

const (
	checkinColumns = `id, person_id, checkin_date, discussion, notes, action_items,
		next_checkin_date, reminder_enabled, reminder_time, reminder_state, created_at, updated_at`

	// reminderTimeLayout is the wall-clock format for reminder_time.
	reminderTimeLayout = "15:04"
)

var validRelationships = map[string]bool{
	"manager": true,
	"report":  true,
	"peer":    true,
}

func validatePersonInput(input *models.CheckinPersonInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return models.Validationf("person name cannot be empty")
	}
	if !validRelationships[input.Relationship] {
		return models.Validationf("relationship must be one of manager, report, peer (got %q)", input.Relationship)
	}
	return nil
}

func scanPerson(row rowScanner) (*models.CheckinPerson, error) {
	var p models.CheckinPerson
	if err := row.Scan(&p.ID, &p.Name, &p.Relationship, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPeople returns all check-in people sorted by case-insensitive name.
func ListPeople(db *sql.DB) ([]*models.CheckinPerson, error) {
	rows, err := db.QueryContext(context.Background(),
		`SELECT id, name, relationship, created_at, updated_at FROM checkin_people ORDER BY lower(name) ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var people []*models.CheckinPerson
	for rows.Next() {
		person, scanErr := scanPerson(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan person row: %w", scanErr)
		}
		people = append(people, person)
	}
	return people, rows.Err()
}

// GetPerson retrieves a person by id.
func GetPerson(db *sql.DB, id string) (*models.CheckinPerson, error) {
	row := db.QueryRowContext(context.Background(),
		`SELECT id, name, relationship, created_at, updated_at FROM checkin_people WHERE id = ?`, id)
	person, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "person", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query person: %w", err)
	}
	return person, nil
}

// CreatePerson inserts a check-in person.
func CreatePerson(db *sql.DB, input models.CheckinPersonInput) (*models.CheckinPerson, error) {
	if err := validatePersonInput(&input); err != nil {
		return nil, err
	}

	id := newID()
	now := nowRFC3339()
	err := RetryWithBackoff(func() error {
		_, err := db.ExecContext(context.Background(),
			`INSERT INTO checkin_people (id, name, relationship, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			id, input.Name, input.Relationship, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert person: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetPerson(db, id)
}

// UpdatePerson replaces a person's name and relationship.
func UpdatePerson(db *sql.DB, id string, input models.CheckinPersonInput) (*models.CheckinPerson, error) {
	if err := validatePersonInput(&input); err != nil {
		return nil, err
	}

	err := RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(),
			`UPDATE checkin_people SET name = ?, relationship = ?, updated_at = ? WHERE id = ?`,
			input.Name, input.Relationship, nowRFC3339(), id)
		if err != nil {
			return fmt.Errorf("failed to update person: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "person", ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetPerson(db, id)
}

// DeletePerson removes a person; their check-ins cascade with them.
func DeletePerson(db *sql.DB, id string) error {
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(),
			`DELETE FROM checkin_people WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete person: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "person", ID: id}
		}
		return nil
	})
}

func scanCheckin(row rowScanner) (*models.Checkin, error) {
	var (
		c               models.Checkin
		discussion      sql.NullString
		notes           sql.NullString
		actionItems     sql.NullString
		nextDate        sql.NullString
		reminderEnabled int
		reminderTime    sql.NullString
		reminderState   sql.NullString
	)
	if err := row.Scan(&c.ID, &c.PersonID, &c.CheckinDate, &discussion, &notes, &actionItems,
		&nextDate, &reminderEnabled, &reminderTime, &reminderState, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Discussion = scanNullString(discussion)
	c.Notes = scanNullString(notes)
	c.ActionItems = scanNullString(actionItems)
	c.NextCheckinDate = scanNullString(nextDate)
	c.ReminderEnabled = reminderEnabled != 0
	c.ReminderTime = scanNullString(reminderTime)
	c.ReminderState = scanNullString(reminderState)
	return &c, nil
}

// deriveReminderState recomputes the persisted state on every write: a
// reminder is scheduled only when enabled with both a next date and a time,
// otherwise it is idle. The sent state is reached only via MarkReminderSent.
func deriveReminderState(input models.CheckinInput) models.ReminderState {
	if input.ReminderEnabled && input.NextCheckinDate != "" && input.ReminderTime != "" {
		return models.ReminderScheduled
	}
	return models.ReminderIdle
}

func validateCheckinInput(input *models.CheckinInput) error {
	if input.PersonID == "" {
		return models.Validationf("check-in person_id cannot be empty")
	}
	if _, err := recur.ParseDate(input.CheckinDate); err != nil {
		return models.Validationf("invalid checkin_date %q: expected YYYY-MM-DD", input.CheckinDate)
	}
	if input.NextCheckinDate != "" {
		if _, err := recur.ParseDate(input.NextCheckinDate); err != nil {
			return models.Validationf("invalid next_checkin_date %q: expected YYYY-MM-DD", input.NextCheckinDate)
		}
	}
	if input.ReminderTime != "" {
		if _, err := time.Parse(reminderTimeLayout, input.ReminderTime); err != nil {
			return models.Validationf("invalid reminder_time %q: expected HH:MM", input.ReminderTime)
		}
	}
	input.Discussion = strings.TrimSpace(input.Discussion)
	input.Notes = strings.TrimSpace(input.Notes)
	input.ActionItems = strings.TrimSpace(input.ActionItems)
	return nil
}

// ListCheckins returns a person's check-ins, most recent first.
func ListCheckins(db *sql.DB, personID string) ([]*models.Checkin, error) {
	rows, err := db.QueryContext(context.Background(),
		`SELECT `+checkinColumns+` FROM checkins WHERE person_id = ? ORDER BY checkin_date DESC, created_at DESC`,
		personID)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var checkins []*models.Checkin
	for rows.Next() {
		checkin, scanErr := scanCheckin(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan check-in row: %w", scanErr)
		}
		checkins = append(checkins, checkin)
	}
	return checkins, rows.Err()
}

// GetCheckin retrieves a check-in by id.
func GetCheckin(db *sql.DB, id string) (*models.Checkin, error) {
	row := db.QueryRowContext(context.Background(),
		`SELECT `+checkinColumns+` FROM checkins WHERE id = ?`, id)
	checkin, err := scanCheckin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "checkin", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query check-in: %w", err)
	}
	return checkin, nil
}

// CreateCheckin records a check-in for an existing person.
func CreateCheckin(db *sql.DB, input models.CheckinInput) (*models.Checkin, error) {
	if err := validateCheckinInput(&input); err != nil {
		return nil, err
	}
	if _, err := GetPerson(db, input.PersonID); err != nil {
		return nil, err
	}

	id := newID()
	now := nowRFC3339()
	state := deriveReminderState(input)

	err := RetryWithBackoff(func() error {
		_, err := db.ExecContext(context.Background(), `
			INSERT INTO checkins (id, person_id, checkin_date, discussion, notes, action_items,
				next_checkin_date, reminder_enabled, reminder_time, reminder_state, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, input.PersonID, input.CheckinDate, nullable(input.Discussion), nullable(input.Notes),
			nullable(input.ActionItems), nullable(input.NextCheckinDate),
			boolToInt(input.ReminderEnabled), nullable(input.ReminderTime), string(state), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert check-in: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetCheckin(db, id)
}

// UpdateCheckin replaces a check-in's fields and rederives its reminder
// state. Editing a sent reminder's schedule re-arms it.
func UpdateCheckin(db *sql.DB, id string, input models.CheckinInput) (*models.Checkin, error) {
	if err := validateCheckinInput(&input); err != nil {
		return nil, err
	}
	if _, err := GetPerson(db, input.PersonID); err != nil {
		return nil, err
	}

	state := deriveReminderState(input)
	err := RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(), `
			UPDATE checkins SET person_id = ?, checkin_date = ?, discussion = ?, notes = ?,
				action_items = ?, next_checkin_date = ?, reminder_enabled = ?, reminder_time = ?,
				reminder_state = ?, updated_at = ?
			WHERE id = ?
		`, input.PersonID, input.CheckinDate, nullable(input.Discussion), nullable(input.Notes),
			nullable(input.ActionItems), nullable(input.NextCheckinDate),
			boolToInt(input.ReminderEnabled), nullable(input.ReminderTime), string(state),
			nowRFC3339(), id)
		if err != nil {
			return fmt.Errorf("failed to update check-in: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "checkin", ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetCheckin(db, id)
}

// DeleteCheckin removes a check-in.
func DeleteCheckin(db *sql.DB, id string) error {
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(), `DELETE FROM checkins WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete check-in: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "checkin", ID: id}
		}
		return nil
	})
}

// ListDueReminders finds check-ins whose reminder is due at now: enabled,
// scheduled with both a date and a time, not yet sent, and whose combined
// date+time is at or before now. Comparison happens in now's location, which
// matches how the user entered the wall-clock time.
func ListDueReminders(db *sql.DB, now time.Time) ([]*models.CheckinReminder, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT c.id, p.name, c.next_checkin_date, c.reminder_time
		FROM checkins c
		JOIN checkin_people p ON p.id = c.person_id
		WHERE c.reminder_enabled = 1
		  AND c.next_checkin_date IS NOT NULL
		  AND c.reminder_time IS NOT NULL
		  AND COALESCE(c.reminder_state, '') != ?
	`, string(models.ReminderSent))
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var due []*models.CheckinReminder
	for rows.Next() {
		var r models.CheckinReminder
		if err := rows.Scan(&r.CheckinID, &r.PersonName, &r.NextCheckinDate, &r.ReminderTime); err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		dueAt, err := time.ParseInLocation(recur.DateLayout+" "+reminderTimeLayout,
			r.NextCheckinDate+" "+r.ReminderTime, now.Location())
		if err != nil {
			// Malformed rows are skipped rather than failing the scan.
			continue
		}
		if !dueAt.After(now) {
			due = append(due, &r)
		}
	}
	return due, rows.Err()
}

// MarkReminderSent transitions a check-in's reminder to sent so the scanner
// never fires it twice.
func MarkReminderSent(db *sql.DB, id string) error {
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(),
			`UPDATE checkins SET reminder_state = ?, updated_at = ? WHERE id = ?`,
			string(models.ReminderSent), nowRFC3339(), id)
		if err != nil {
			return fmt.Errorf("failed to mark reminder sent: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "checkin", ID: id}
		}
		return nil
	})
}
