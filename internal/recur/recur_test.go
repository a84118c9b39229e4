package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := ParseDate(value)
	require.NoError(t, err)
	return d
}

func TestDailyAddsInterval(t *testing.T) {
	anchor := date(t, "2026-02-06")
	for _, interval := range []int{1, 2, 14} {
		next := NextOccurrence(Rule{Type: Daily, Interval: interval}, anchor)
		assert.Equal(t, anchor.AddDate(0, 0, interval), next)
	}
}

func TestDailyClampsInterval(t *testing.T) {
	anchor := date(t, "2026-02-06")
	next := NextOccurrence(Rule{Type: Daily, Interval: 0}, anchor)
	assert.Equal(t, "2026-02-07", FormatDate(next))
}

func TestWeeklyWithoutWeekdaysAdvancesWholeWeeks(t *testing.T) {
	anchor := date(t, "2026-02-06") // Friday
	next := NextOccurrence(Rule{Type: Weekly, Interval: 2}, anchor)
	assert.Equal(t, "2026-02-20", FormatDate(next))
	assert.Equal(t, anchor.Weekday(), next.Weekday())
}

func TestWeeklyPicksNextAllowedWeekday(t *testing.T) {
	anchor := date(t, "2026-02-06") // Friday
	rule := Rule{Type: Weekly, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Wednesday}}

	next := NextOccurrence(rule, anchor)
	assert.True(t, next.After(anchor))
	assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday}, next.Weekday())
	// 2026-02-09 is the Monday after the anchor.
	assert.Equal(t, "2026-02-09", FormatDate(next))
}

func TestWeeklyIntervalSkipsWeeks(t *testing.T) {
	anchor := date(t, "2026-02-09") // Monday
	rule := Rule{Type: Weekly, Interval: 2, Weekdays: []time.Weekday{time.Monday}}

	next := NextOccurrence(rule, anchor)
	assert.Equal(t, "2026-02-23", FormatDate(next))

	// Wednesday of the anchor week is still week zero, so it qualifies.
	rule.Weekdays = []time.Weekday{time.Wednesday}
	next = NextOccurrence(rule, anchor)
	assert.Equal(t, "2026-02-11", FormatDate(next))
}

func TestMonthlyKeepsDay(t *testing.T) {
	next := NextOccurrence(Rule{Type: Monthly, Interval: 1}, date(t, "2026-03-15"))
	assert.Equal(t, "2026-04-15", FormatDate(next))
}

func TestMonthlyClampsToEndOfMonth(t *testing.T) {
	next := NextOccurrence(Rule{Type: Monthly, Interval: 1}, date(t, "2026-01-31"))
	assert.Equal(t, "2026-02-28", FormatDate(next))
}

func TestMonthlyCrossesYearBoundary(t *testing.T) {
	next := NextOccurrence(Rule{Type: Monthly, Interval: 3}, date(t, "2026-11-30"))
	assert.Equal(t, "2027-02-28", FormatDate(next))
}

func TestParseWeekdaysDropsUnknownNames(t *testing.T) {
	days := ParseWeekdays("Mon, Wed,Funday,Sun")
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Sunday}, days)
}

func TestParseDateRejectsMalformed(t *testing.T) {
	_, err := ParseDate("02/06/2026")
	assert.Error(t, err)
}
