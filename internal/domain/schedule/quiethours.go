package schedule

import (
	"fmt"
	"time"
)

// QuietWindow is a per-user local time-of-day range during which notifications
// are held back, expressed as HH:MM strings in an IANA timezone.
type QuietWindow struct {
	Start    string
	End      string
	Timezone string
}

// Contains reports whether the UTC instant falls inside the quiet window in
// the user's local time. Windows where Start > End wrap midnight (22:00-08:00).
// The window is half-open: the start minute is quiet, the end minute is awake,
// so an instant deferred to the window end is immediately sendable.
// Lookup or parse failures fail open: the caller gets false plus the error and
// should log it rather than block the send.
func (w QuietWindow) Contains(utc time.Time) (bool, error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return false, fmt.Errorf("unknown timezone %q: %w", w.Timezone, err)
	}

	if err := validateClock(w.Start); err != nil {
		return false, err
	}
	if err := validateClock(w.End); err != nil {
		return false, err
	}

	local := utc.In(loc).Format("15:04")

	// HH:MM compares correctly as strings.
	if w.Start <= w.End {
		return w.Start <= local && local < w.End, nil
	}
	return local >= w.Start || local < w.End, nil
}

// NextAllowed returns the first instant at or after utc whose local
// time-of-day equals the window's end. The result is strictly after utc; when
// the end-of-window clock time has already passed locally it lands on the next
// calendar day. On failure the instant one hour later is returned.
func (w QuietWindow) NextAllowed(utc time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return utc.Add(time.Hour), fmt.Errorf("unknown timezone %q: %w", w.Timezone, err)
	}

	hour, minute, err := parseClock(w.End)
	if err != nil {
		return utc.Add(time.Hour), err
	}

	local := utc.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}

	return next.UTC(), nil
}

func parseClock(s string) (hour, minute int, err error) {
	if _, err := time.Parse("15:04", s); err != nil {
		return 0, 0, fmt.Errorf("invalid quiet-hours time %q: %w", s, err)
	}
	fmt.Sscanf(s, "%d:%d", &hour, &minute)
	return hour, minute, nil
}

func validateClock(s string) error {
	_, _, err := parseClock(s)
	return err
}
