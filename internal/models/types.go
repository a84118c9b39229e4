package models

// ID Strategy: every entity row uses a UUIDv4 string id. Rows are created
// either by explicit user action or by the rollover/recurrence sweeps; both
// paths go through the same repository inserts.

// TaskStatus represents the current state of a task.
type TaskStatus string

// Task status constants.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// IsTerminal returns true if the task is in a completed state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone
}

// RecurrenceType identifies how a recurring task repeats.
type RecurrenceType string

// Recurrence type constants.
const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

// TimerState is the persisted lifecycle of a task countdown timer.
// The in-memory registry is only a cache; these values are the source of truth.
type TimerState string

// Timer state constants.
const (
	TimerIdle     TimerState = "idle"
	TimerRunning  TimerState = "running"
	TimerPaused   TimerState = "paused"
	TimerFinished TimerState = "finished"
)

// ReminderState is the lifecycle of a check-in's due notification.
type ReminderState string

// Reminder state constants.
const (
	ReminderIdle      ReminderState = "idle"
	ReminderScheduled ReminderState = "scheduled"
	ReminderSent      ReminderState = "sent"
)

// Task represents a task row. Dates are YYYY-MM-DD strings; timestamps are
// RFC 3339 strings as stored.
type Task struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Notes              string   `json:"notes,omitempty"`
	Tags               []string `json:"tags"`
	TargetDate         string   `json:"target_date"`
	Status             string   `json:"status"`
	ProgressPercent    int      `json:"progress_percent"`
	DeadlineAt         string   `json:"deadline_at,omitempty"`
	IsRecurring        bool     `json:"is_recurring"`
	RecurrenceType     string   `json:"recurrence_type,omitempty"`
	RecurrenceInterval int      `json:"recurrence_interval,omitempty"`
	RecurrenceWeekdays string   `json:"recurrence_weekdays,omitempty"`
	TimerEnabled       bool     `json:"timer_enabled"`
	TimerMinutes       int      `json:"timer_minutes,omitempty"`
	TimerState         string   `json:"timer_state,omitempty"`
	TimerEndsAt        string   `json:"timer_ends_at,omitempty"`
	RolledOver         bool     `json:"rolled_over"`
	RolledFromDate     string   `json:"rolled_from_date,omitempty"`
	SortOrder          int64    `json:"sort_order"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// TaskInput carries the mutable fields for task create/update.
type TaskInput struct {
	Title              string   `json:"title"`
	Notes              string   `json:"notes,omitempty"`
	Tags               []string `json:"tags"`
	TargetDate         string   `json:"target_date"`
	Status             string   `json:"status"`
	ProgressPercent    int      `json:"progress_percent"`
	DeadlineAt         string   `json:"deadline_at,omitempty"`
	IsRecurring        bool     `json:"is_recurring"`
	RecurrenceType     string   `json:"recurrence_type,omitempty"`
	RecurrenceInterval int      `json:"recurrence_interval,omitempty"`
	RecurrenceWeekdays string   `json:"recurrence_weekdays,omitempty"`
	TimerEnabled       bool     `json:"timer_enabled"`
	TimerMinutes       int      `json:"timer_minutes,omitempty"`
}

// TaskOverview partitions tasks for the main view: today's planned work,
// work carried forward by the rollover sweep, and future-dated tasks.
type TaskOverview struct {
	Today      []*Task `json:"today"`
	RolledOver []*Task `json:"rolled_over"`
	Upcoming   []*Task `json:"upcoming"`
}

// Note represents a markdown note, optionally filed in a folder.
type Note struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Tags         []string `json:"tags"`
	FolderID     string   `json:"folder_id,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// NoteInput carries the mutable fields for note create/update.
type NoteInput struct {
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Tags         []string `json:"tags"`
	FolderID     string   `json:"folder_id,omitempty"`
}

// NoteFolder groups notes. Deleting a folder unfiles its notes, it never
// deletes them.
type NoteFolder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NoteAttachment is the database row for a stored attachment file.
// The bytes live under attachments/<note_id>/ in the workspace.
type NoteAttachment struct {
	ID           string `json:"id"`
	NoteID       string `json:"note_id"`
	Filename     string `json:"filename"`
	PathRelative string `json:"path_relative"`
	CreatedAt    string `json:"created_at"`
}

// CheckinPerson is someone the user checks in with.
// Relationship is one of: manager, report, peer.
type CheckinPerson struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// CheckinPersonInput carries the fields for person creation.
type CheckinPersonInput struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// Checkin records one conversation and optionally schedules the next one.
type Checkin struct {
	ID              string `json:"id"`
	PersonID        string `json:"person_id"`
	CheckinDate     string `json:"checkin_date"`
	Discussion      string `json:"discussion,omitempty"`
	Notes           string `json:"notes,omitempty"`
	ActionItems     string `json:"action_items,omitempty"`
	NextCheckinDate string `json:"next_checkin_date,omitempty"`
	ReminderEnabled bool   `json:"reminder_enabled"`
	ReminderTime    string `json:"reminder_time,omitempty"`
	ReminderState   string `json:"reminder_state,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// CheckinInput carries the mutable fields for check-in create/update.
type CheckinInput struct {
	PersonID        string `json:"person_id"`
	CheckinDate     string `json:"checkin_date"`
	Discussion      string `json:"discussion,omitempty"`
	Notes           string `json:"notes,omitempty"`
	ActionItems     string `json:"action_items,omitempty"`
	NextCheckinDate string `json:"next_checkin_date,omitempty"`
	ReminderEnabled bool   `json:"reminder_enabled"`
	ReminderTime    string `json:"reminder_time,omitempty"`
}

// CheckinReminder is one due reminder produced by the scanner.
type CheckinReminder struct {
	CheckinID       string `json:"checkin_id"`
	PersonName      string `json:"person_name"`
	NextCheckinDate string `json:"next_checkin_date"`
	ReminderTime    string `json:"reminder_time"`
}
