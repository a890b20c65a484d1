package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuietWindowContainsOvernight(t *testing.T) {
	w := QuietWindow{Start: "22:00", End: "08:00", Timezone: "Asia/Kolkata"}
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	tests := []struct {
		name  string
		local time.Time
		want  bool
	}{
		{"late evening inside", time.Date(2025, time.March, 20, 23, 30, 0, 0, loc), true},
		{"early morning inside", time.Date(2025, time.March, 21, 6, 0, 0, 0, loc), true},
		{"end boundary awake", time.Date(2025, time.March, 21, 8, 0, 0, 0, loc), false},
		{"minute before end inside", time.Date(2025, time.March, 21, 7, 59, 0, 0, loc), true},
		{"midday outside", time.Date(2025, time.March, 20, 12, 0, 0, 0, loc), false},
		{"just before start outside", time.Date(2025, time.March, 20, 21, 59, 0, 0, loc), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.Contains(tt.local.UTC())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuietWindowContainsSameDay(t *testing.T) {
	w := QuietWindow{Start: "12:00", End: "14:00", Timezone: "UTC"}

	inside, err := w.Contains(time.Date(2025, time.March, 20, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, inside)

	outside, err := w.Contains(time.Date(2025, time.March, 20, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, outside)
}

func TestQuietWindowFailsOpenOnBadTimezone(t *testing.T) {
	w := QuietWindow{Start: "22:00", End: "08:00", Timezone: "Not/AZone"}

	quiet, err := w.Contains(time.Now().UTC())
	assert.Error(t, err)
	assert.False(t, quiet)
}

func TestQuietWindowFailsOpenOnBadClock(t *testing.T) {
	w := QuietWindow{Start: "25:99", End: "08:00", Timezone: "UTC"}

	quiet, err := w.Contains(time.Now().UTC())
	assert.Error(t, err)
	assert.False(t, quiet)
}

func TestNextAllowedLandsOnWindowEnd(t *testing.T) {
	w := QuietWindow{Start: "22:00", End: "08:00", Timezone: "Asia/Kolkata"}
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 23:30 local: window end (08:00) already passed today, so defer lands on
	// 08:00 the next day.
	scheduled := time.Date(2025, time.March, 20, 23, 30, 0, 0, loc)
	next, err := w.NextAllowed(scheduled.UTC())
	require.NoError(t, err)

	local := next.In(loc)
	assert.Equal(t, "08:00", local.Format("15:04"))
	assert.Equal(t, 21, local.Day())
	assert.True(t, next.After(scheduled.UTC()))
}

func TestNextAllowedIsOutsideWindow(t *testing.T) {
	w := QuietWindow{Start: "22:00", End: "08:00", Timezone: "UTC"}

	// A deferred instant must be sendable on the very next sweep, not deferred
	// again day after day.
	scheduled := time.Date(2027, time.May, 10, 23, 30, 0, 0, time.UTC)
	next, err := w.NextAllowed(scheduled)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, time.May, 11, 8, 0, 0, 0, time.UTC), next)

	quiet, err := w.Contains(next)
	require.NoError(t, err)
	assert.False(t, quiet)
}

func TestNextAllowedEarlyMorningSameDay(t *testing.T) {
	w := QuietWindow{Start: "22:00", End: "08:00", Timezone: "UTC"}

	scheduled := time.Date(2025, time.March, 21, 5, 0, 0, 0, time.UTC)
	next, err := w.NextAllowed(scheduled)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 21, 8, 0, 0, 0, time.UTC), next)
}

func TestNextAllowedBadTimezoneDefersOneHour(t *testing.T) {
	w := QuietWindow{Start: "22:00", End: "08:00", Timezone: "Not/AZone"}

	scheduled := time.Date(2025, time.March, 21, 5, 0, 0, 0, time.UTC)
	next, err := w.NextAllowed(scheduled)
	assert.Error(t, err)
	assert.Equal(t, scheduled.Add(time.Hour), next)
}
