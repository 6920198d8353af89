package booking

import (
	"testing"

	"igla/internal/models"
	"igla/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchedule(t *testing.T) *schedule.Schedule {
	t.Helper()
	sched, err := schedule.New(schedule.DefaultPolicy(), "Europe/Moscow")
	require.NoError(t, err)
	return sched
}

func TestNextMissingStep_Order(t *testing.T) {
	draft := models.NewBookingDraft(1)
	assert.Equal(t, StepWantCustomSketch, NextMissingStep(draft))

	// false это тоже ответ: шаг пройден, не застреваем.
	Apply(draft, StepWantCustomSketch, false)
	assert.Equal(t, StepBodyPart, NextMissingStep(draft))

	Apply(draft, StepBodyPart, "arm")
	assert.Equal(t, StepCalendarDate, NextMissingStep(draft))

	Apply(draft, StepCalendarDate, "2026-09-15")
	assert.Equal(t, StepCalendarTime, NextMissingStep(draft))

	Apply(draft, StepCalendarTime, "14:00")
	assert.Equal(t, StepPromoCode, NextMissingStep(draft))

	// Пропуск тоже ответ (nil при присутствующем ключе).
	Skip(draft, StepPromoCode)
	assert.Equal(t, StepConfirm, NextMissingStep(draft))
}

func TestApply_DateChangeDropsTime(t *testing.T) {
	draft := models.NewBookingDraft(1)
	Apply(draft, StepCalendarDate, "2026-09-15")
	Apply(draft, StepCalendarTime, "14:00")

	Apply(draft, StepCalendarDate, "2026-09-16")
	assert.False(t, draft.Answered(StepCalendarTime))
	assert.Equal(t, "2026-09-16", draft.GetString(StepCalendarDate))

	// Повторный выбор той же даты время не трогает.
	Apply(draft, StepCalendarTime, "15:00")
	Apply(draft, StepCalendarDate, "2026-09-16")
	assert.Equal(t, "15:00", draft.GetString(StepCalendarTime))
}

func TestParseValue(t *testing.T) {
	sched := newTestSchedule(t)
	today := "2026-09-01"

	v, err := ParseValue(sched, StepWantCustomSketch, "1", today)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = ParseValue(sched, StepWantCustomSketch, "0", today)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = ParseValue(sched, StepWantCustomSketch, "maybe", today)
	assert.Error(t, err)

	_, err = ParseValue(sched, StepBodyPart, "wing", today)
	assert.Error(t, err)
	v, err = ParseValue(sched, StepBodyPart, "back", today)
	require.NoError(t, err)
	assert.Equal(t, "back", v)

	_, err = ParseValue(sched, StepCalendarDate, "15.09.2026", today)
	assert.Error(t, err)
	_, err = ParseValue(sched, StepCalendarDate, "2026-08-31", today)
	assert.Error(t, err) // прошлое
	v, err = ParseValue(sched, StepCalendarDate, "2026-09-15", today)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-15", v)

	_, err = ParseValue(sched, StepCalendarTime, "11:00", today)
	assert.Error(t, err)
	v, err = ParseValue(sched, StepCalendarTime, "14:00", today)
	require.NoError(t, err)
	assert.Equal(t, "14:00", v)

	_, err = ParseValue(sched, StepPromoCode, "   ", today)
	assert.Error(t, err)
	v, err = ParseValue(sched, StepPromoCode, "  SUMMER10 ", today)
	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", v)

	_, err = ParseValue(sched, "unknown_step", "x", today)
	assert.Error(t, err)
}

func TestReadyToConfirm(t *testing.T) {
	draft := models.NewBookingDraft(1)
	assert.False(t, ReadyToConfirm(draft))

	Apply(draft, StepCalendarDate, "2026-09-15")
	assert.False(t, ReadyToConfirm(draft))

	Apply(draft, StepCalendarTime, "14:00")
	assert.True(t, ReadyToConfirm(draft))
}

func TestRenderSummary(t *testing.T) {
	draft := models.NewBookingDraft(1)
	Apply(draft, StepWantCustomSketch, false)
	Apply(draft, StepBodyPart, "arm")
	Apply(draft, StepCalendarDate, "2026-09-15")
	Skip(draft, StepPromoCode)

	summary := RenderSummary(draft)
	assert.Contains(t, summary, "Индивидуальный эскиз: Нет")
	assert.Contains(t, summary, "Часть тела: Рука")
	assert.Contains(t, summary, "Дата: 15.09.2026")
	assert.Contains(t, summary, "Время: —")
	assert.Contains(t, summary, "Промокод: Пропущено")
}
