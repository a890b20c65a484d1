package schedule

import (
	"time"

	"github.com/lexassist/core/internal/domain/entities"
)

// NextDueDate computes the due date following current for the given recurrence
// pattern. The result preserves the time-of-day of current and is always
// strictly later. Unrecognized patterns behave as monthly. Day-of-month is
// clamped to the target month's length, so Jan 31 advances to Feb 28/29 rather
// than overflowing into March.
func NextDueDate(current time.Time, pattern entities.RecurrencePattern) time.Time {
	current = current.UTC()

	switch pattern {
	case entities.RecurrenceDaily:
		return current.AddDate(0, 0, 1)
	case entities.RecurrenceWeekly:
		return current.AddDate(0, 0, 7)
	case entities.RecurrenceQuarterly:
		return addMonthsClamped(current, 3)
	case entities.RecurrenceAnnually:
		return addMonthsClamped(current, 12)
	case entities.RecurrenceMonthly:
		return addMonthsClamped(current, 1)
	default:
		return addMonthsClamped(current, 1)
	}
}

// addMonthsClamped advances t by n months with explicit year/month arithmetic.
// time.AddDate normalizes overflow (Jan 31 + 1 month = Mar 2/3); filing
// deadlines must stay in the target month, so the day is clamped instead.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()

	total := int(month) - 1 + n
	year += total / 12
	month = time.Month(total%12 + 1)

	if max := daysIn(year, month); day > max {
		day = max
	}

	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
