package availability

import (
	"context"
	"testing"

	"igla/internal/database"
	"igla/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEngine(t *testing.T) (*Engine, *database.DB, *schedule.Schedule) {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Короткий горизонт, чтобы DisabledDates было удобно проверять целиком.
	sched, err := schedule.New(schedule.Policy{DaysAhead: 3, StartHour: 12, EndHourInclusive: 14}, "Europe/Moscow")
	require.NoError(t, err)

	return NewEngine(sched, db, &logger), db, sched
}

func TestAvailableSlots_FullGrid(t *testing.T) {
	engine, _, _ := setupEngine(t)

	slots, err := engine.AvailableSlots(context.Background(), "2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, []string{"12:00", "13:00", "14:00"}, slots)
}

func TestAvailableSlots_DayOff(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()

	_, err := db.ToggleDayOff(ctx, "2026-09-15", "")
	require.NoError(t, err)

	slots, err := engine.AvailableSlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlots_SubtractsBlockedAndBooked(t *testing.T) {
	engine, db, sched := setupEngine(t)
	ctx := context.Background()

	_, err := db.ToggleBlockedSlot(ctx, "2026-09-15", "12:00", "")
	require.NoError(t, err)

	startAt, err := sched.ComposeStartAt("2026-09-15", "14:00")
	require.NoError(t, err)
	_, err = db.CreateReservation(ctx, 100, "client", startAt)
	require.NoError(t, err)

	slots, err := engine.AvailableSlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, []string{"13:00"}, slots)
}

func TestIsSlotAvailable(t *testing.T) {
	engine, db, sched := setupEngine(t)
	ctx := context.Background()

	ok, err := engine.IsSlotAvailable(ctx, "2026-09-15", "13:00")
	require.NoError(t, err)
	assert.True(t, ok)

	// Вне сетки отказ без похода в хранилище.
	ok, err = engine.IsSlotAvailable(ctx, "2026-09-15", "23:00")
	require.NoError(t, err)
	assert.False(t, ok)

	startAt, err := sched.ComposeStartAt("2026-09-15", "13:00")
	require.NoError(t, err)
	_, err = db.CreateReservation(ctx, 100, "client", startAt)
	require.NoError(t, err)

	ok, err = engine.IsSlotAvailable(ctx, "2026-09-15", "13:00")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisabledDates(t *testing.T) {
	engine, db, sched := setupEngine(t)
	ctx := context.Background()
	today := "2026-09-15"

	// День 1: выходной.
	_, err := db.ToggleDayOff(ctx, "2026-09-16", "")
	require.NoError(t, err)

	// День 2: все слоты выбиты блокировками и записями, тоже недоступен.
	_, err = db.ToggleBlockedSlot(ctx, "2026-09-17", "12:00", "")
	require.NoError(t, err)
	_, err = db.ToggleBlockedSlot(ctx, "2026-09-17", "13:00", "")
	require.NoError(t, err)
	startAt, err := sched.ComposeStartAt("2026-09-17", "14:00")
	require.NoError(t, err)
	_, err = db.CreateReservation(ctx, 100, "client", startAt)
	require.NoError(t, err)

	// День 3: частично занят, но остаётся доступным.
	_, err = db.ToggleBlockedSlot(ctx, "2026-09-18", "12:00", "")
	require.NoError(t, err)

	disabled, err := engine.DisabledDates(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"2026-09-16": true,
		"2026-09-17": true,
	}, disabled)
}
