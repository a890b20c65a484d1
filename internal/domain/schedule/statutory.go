package schedule

import (
	"errors"
	"time"

	"github.com/lexassist/core/internal/domain/entities"
)

// ErrFallbackDeadline signals that the statutory calculation could not honor
// its inputs and returned the deterministic reference+30d fallback instead.
// Callers log it as a warning; the returned date is still usable.
var ErrFallbackDeadline = errors.New("statutory deadline fell back to reference + 30 days")

// NextFilingDeadline computes the next statutory filing deadline for a cadence
// relative to reference. filingDay is the day-of-period deadline (e.g. the 20th
// for GST monthly returns). The result is midnight UTC on the deadline day.
//
// Monthly: this month's filing day when the reference day has not passed it,
// otherwise next month's, rolling December into January. Quarterly: the filing
// day in the first month of the next quarter, rolling past Q4 into next year.
// Annual: December 31 of the reference year. Unknown cadences behave as
// monthly. A filing day outside 1..31 yields reference+30d and
// ErrFallbackDeadline.
func NextFilingDeadline(cadence entities.FilingCadence, filingDay int, reference time.Time) (time.Time, error) {
	reference = reference.UTC()

	if filingDay < 1 || filingDay > 31 {
		return reference.AddDate(0, 0, 30), ErrFallbackDeadline
	}

	switch cadence {
	case entities.CadenceQuarterly:
		return nextQuarterlyDeadline(reference, filingDay), nil
	case entities.CadenceAnnual:
		return atMidnight(reference.Year(), time.December, 31), nil
	case entities.CadenceMonthly:
		return nextMonthlyDeadline(reference, filingDay), nil
	default:
		return nextMonthlyDeadline(reference, filingDay), nil
	}
}

func nextMonthlyDeadline(ref time.Time, filingDay int) time.Time {
	year, month, day := ref.Date()

	if day <= filingDay {
		return atMidnight(year, month, clampDay(year, month, filingDay))
	}

	if month == time.December {
		return atMidnight(year+1, time.January, clampDay(year+1, time.January, filingDay))
	}
	return atMidnight(year, month+1, clampDay(year, month+1, filingDay))
}

func nextQuarterlyDeadline(ref time.Time, filingDay int) time.Time {
	year := ref.Year()
	quarter := (int(ref.Month()) - 1) / 3 // 0-based

	nextQuarter := quarter + 1
	if nextQuarter > 3 {
		nextQuarter = 0
		year++
	}
	month := time.Month(nextQuarter*3 + 1)

	return atMidnight(year, month, clampDay(year, month, filingDay))
}

func clampDay(year int, month time.Month, day int) int {
	if max := daysIn(year, month); day > max {
		return max
	}
	return day
}

func atMidnight(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
