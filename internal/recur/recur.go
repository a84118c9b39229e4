// Package recur derives the next occurrence date for a recurrence rule.
// Everything here is pure: callers pass the anchor date explicitly, so the
// sweeps that use this package stay deterministic under test.
package recur

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical YYYY-MM-DD form used throughout the store.
const DateLayout = "2006-01-02"

// Type identifies how a rule repeats.
type Type string

// Rule types.
const (
	Daily   Type = "daily"
	Weekly  Type = "weekly"
	Monthly Type = "monthly"
)

// weeklyScanCap bounds the day-by-day weekly scan. An empty or contradictory
// weekday configuration would otherwise loop without terminating.
const weeklyScanCap = 500

// Rule is a parsed recurrence rule. Weekdays is only meaningful for Weekly.
type Rule struct {
	Type     Type
	Interval int
	Weekdays []time.Weekday
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return d, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ParseWeekdays parses a CSV of day names ("Mon,Wed"). Unknown names are
// dropped, matching how stored weekday lists have always been read.
func ParseWeekdays(csv string) []time.Weekday {
	var out []time.Weekday
	for _, part := range strings.Split(csv, ",") {
		switch strings.TrimSpace(part) {
		case "Mon":
			out = append(out, time.Monday)
		case "Tue":
			out = append(out, time.Tuesday)
		case "Wed":
			out = append(out, time.Wednesday)
		case "Thu":
			out = append(out, time.Thursday)
		case "Fri":
			out = append(out, time.Friday)
		case "Sat":
			out = append(out, time.Saturday)
		case "Sun":
			out = append(out, time.Sunday)
		}
	}
	return out
}

// NextOccurrence returns the first occurrence of rule strictly after anchor.
// The interval is clamped to a minimum of 1.
func NextOccurrence(rule Rule, anchor time.Time) time.Time {
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	switch rule.Type {
	case Daily:
		return anchor.AddDate(0, 0, interval)
	case Weekly:
		return nextWeekly(anchor, interval, rule.Weekdays)
	case Monthly:
		return addMonthsKeepDay(anchor, interval)
	default:
		return anchor
	}
}

// nextWeekly scans forward from anchor+1 for a day whose weekday is allowed
// and whose Monday-aligned week is a whole multiple of interval weeks past
// the anchor's week. Without a weekday set the rule simply advances interval
// weeks from the anchor.
func nextWeekly(anchor time.Time, interval int, weekdays []time.Weekday) time.Time {
	if len(weekdays) == 0 {
		return anchor.AddDate(0, 0, interval*7)
	}

	anchorWeek := weekStart(anchor)
	cursor := anchor.AddDate(0, 0, 1)
	for i := 0; i < weeklyScanCap; i++ {
		weekDiff := int(weekStart(cursor).Sub(anchorWeek).Hours() / 24 / 7)
		if weekDiff%interval == 0 && weekdayAllowed(cursor.Weekday(), weekdays) {
			return cursor
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return anchor.AddDate(0, 0, interval*7)
}

func weekdayAllowed(day time.Weekday, allowed []time.Weekday) bool {
	for _, w := range allowed {
		if w == day {
			return true
		}
	}
	return false
}

// weekStart returns the Monday of the week containing d.
func weekStart(d time.Time) time.Time {
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return d.AddDate(0, 0, -offset)
}

// addMonthsKeepDay advances by interval months keeping the day-of-month.
// When the day does not exist in the target month (Jan 31 + 1 month), it
// clamps down to the last valid day instead of rolling into the next month.
func addMonthsKeepDay(base time.Time, interval int) time.Time {
	year, month, day := base.Date()
	m := int(month) + interval
	for m > 12 {
		m -= 12
		year++
	}
	for m <= 0 {
		m += 12
		year--
	}

	last := lastDayOfMonth(year, time.Month(m))
	if day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day, 0, 0, 0, 0, base.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the following month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
