package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchedule(t *testing.T) *Schedule {
	t.Helper()
	sched, err := New(DefaultPolicy(), "Europe/Moscow")
	require.NoError(t, err)
	return sched
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Policy{DaysAhead: 0, StartHour: 12, EndHourInclusive: 20}, "")
	assert.Error(t, err)

	_, err = New(Policy{DaysAhead: 90, StartHour: 21, EndHourInclusive: 20}, "")
	assert.Error(t, err)

	_, err = New(Policy{DaysAhead: 90, StartHour: 12, EndHourInclusive: 20}, "Nowhere/Unknown")
	assert.Error(t, err)

	sched, err := New(Policy{DaysAhead: 90, StartHour: 12, EndHourInclusive: 20}, "")
	require.NoError(t, err)
	assert.Equal(t, 90, sched.Policy().DaysAhead)
}

func TestSlotGrid(t *testing.T) {
	sched := newTestSchedule(t)

	grid := sched.SlotGrid()
	require.Len(t, grid, 9)
	assert.Equal(t, "12:00", grid[0])
	assert.Equal(t, "20:00", grid[8])

	assert.True(t, sched.InGrid("15:00"))
	assert.False(t, sched.InGrid("11:00"))
	assert.False(t, sched.InGrid("15:30"))
}

func TestComposeStartAt_MoscowToUTC(t *testing.T) {
	sched := newTestSchedule(t)

	// Москва живет на UTC+3 круглый год.
	startAt, err := sched.ComposeStartAt("2026-09-15", "12:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC), startAt)

	_, err = sched.ComposeStartAt("15.09.2026", "12:00")
	assert.Error(t, err)
}

func TestDayBoundsUTC(t *testing.T) {
	sched := newTestSchedule(t)

	from, to, err := sched.DayBoundsUTC("2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 14, 21, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 9, 15, 21, 0, 0, 0, time.UTC), to)

	// Слот 20:00 того же дня попадает в границы.
	last, err := sched.ComposeStartAt("2026-09-15", "20:00")
	require.NoError(t, err)
	assert.True(t, !last.Before(from) && last.Before(to))
}

func TestLocalDateAndSlot(t *testing.T) {
	sched := newTestSchedule(t)

	startAt, err := sched.ComposeStartAt("2026-09-15", "20:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-15", sched.LocalDate(startAt))
	assert.Equal(t, "20:00", sched.LocalSlot(startAt))
}

func TestIsDateAvailable(t *testing.T) {
	sched := newTestSchedule(t)
	today := "2026-09-01"

	assert.True(t, sched.IsDateAvailable(today, today))
	assert.True(t, sched.IsDateAvailable("2026-11-30", today)) // today+90
	assert.False(t, sched.IsDateAvailable("2026-12-01", today))
	assert.False(t, sched.IsDateAvailable("2026-08-31", today))
	assert.False(t, sched.IsDateAvailable("not-a-date", today))
}

func TestAddDays(t *testing.T) {
	sched := newTestSchedule(t)

	next, err := sched.AddDays("2026-02-28", 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", next)

	prev, err := sched.AddDays("2026-01-01", -1)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", prev)
}
