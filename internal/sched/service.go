// Package sched runs the background loops behind `dayrally serve`: the
// midnight rollover/recurrence sweep and the check-in reminder scanner.
package sched

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dayrally/dayrally/internal/store"
)

// Cron specs use the seconds-field extension. The sweep fires shortly after
// midnight rather than exactly at it so the day boundary has safely passed.
const (
	dailySweepSpec   = "5 0 0 * * *"
	reminderScanSpec = "@every 30s"
	timerScanSpec    = "@every 30s"
)

// Notifier delivers user-facing notifications when a reminder fires.
type Notifier interface {
	Notify(title, body string)
}

// LogNotifier writes notifications to the structured log. It stands in where
// no desktop notification channel is wired up.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(title, body string) {
	n.Logger.Info("notification", "title", title, "body", body)
}

// OpenStore yields the workspace database for one scheduled cycle.
type OpenStore func() (*sql.DB, error)

// Service owns the cron runner. Each cycle opens the store fresh so a
// workspace switch or an unavailable database only skips that cycle.
type Service struct {
	open     OpenStore
	notifier Notifier
	logger   *slog.Logger
	cron     *cron.Cron

	// Sweep is invoked with the day the sweep runs for; injected so serve can
	// route it through the same path the overview command uses.
	Sweep func(db *sql.DB, today string) error
}

// NewService builds a stopped service. Call Start to begin scheduling.
func NewService(open OpenStore, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		open:     open,
		notifier: notifier,
		logger:   logger,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start registers the jobs and launches the cron runner. An immediate sweep
// runs first so a process started mid-day is not stale until midnight.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(dailySweepSpec, s.runSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(reminderScanSpec, s.runReminderScan); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(timerScanSpec, s.runTimerScan); err != nil {
		return err
	}

	s.runSweep()
	s.runTimerScan()
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for running jobs to return.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Service) runSweep() {
	if s.Sweep == nil {
		return
	}
	db, err := s.open()
	if err != nil {
		s.logger.Warn("sweep skipped, store unavailable", "error", err)
		return
	}
	defer func() { _ = db.Close() }()

	today := time.Now().Format("2006-01-02")
	if err := s.Sweep(db, today); err != nil {
		s.logger.Error("daily sweep failed", "date", today, "error", err)
		return
	}
	s.logger.Info("daily sweep complete", "date", today)
}

// runTimerScan finishes persisted timers whose expiry has passed. Timers
// started by a one-shot CLI process outlive it as running rows; this scan is
// what eventually fires their notifications.
func (s *Service) runTimerScan() {
	db, err := s.open()
	if err != nil {
		s.logger.Warn("timer scan skipped, store unavailable", "error", err)
		return
	}
	defer func() { _ = db.Close() }()

	now := time.Now()
	running, err := store.ListRunningTimers(db)
	if err != nil {
		s.logger.Error("timer scan failed", "error", err)
		return
	}

	for _, task := range running {
		endsAt, parseErr := time.Parse(time.RFC3339, task.TimerEndsAt)
		if parseErr != nil {
			s.logger.Warn("skipping timer with malformed expiry",
				"task_id", task.ID, "ends_at", task.TimerEndsAt)
			continue
		}
		if endsAt.After(now) {
			continue
		}
		if err := store.FinishTimer(db, task.ID); err != nil {
			s.logger.Error("failed to finish timer", "task_id", task.ID, "error", err)
			continue
		}
		s.notifier.Notify("Timer finished", fmt.Sprintf("Time is up for %q", task.Title))
	}
}

func (s *Service) runReminderScan() {
	db, err := s.open()
	if err != nil {
		s.logger.Warn("reminder scan skipped, store unavailable", "error", err)
		return
	}
	defer func() { _ = db.Close() }()

	now := time.Now()
	due, err := store.ListDueReminders(db, now)
	if err != nil {
		s.logger.Error("reminder scan failed", "error", err)
		return
	}

	for _, r := range due {
		s.notifier.Notify("Check-in reminder",
			"Time to check in with "+r.PersonName+" ("+r.NextCheckinDate+" "+r.ReminderTime+")")
		if err := store.MarkReminderSent(db, r.CheckinID); err != nil {
			s.logger.Error("failed to mark reminder sent", "checkin_id", r.CheckinID, "error", err)
		}
	}
}
