package bot

import (
	"errors"
	"fmt"
	"testing"

	"igla/internal/booking"
	"igla/internal/database"
	"igla/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBot(t *testing.T) *Bot {
	t.Helper()
	sched, err := schedule.New(schedule.Policy{DaysAhead: 365, StartHour: 12, EndHourInclusive: 20}, "Europe/Moscow")
	require.NoError(t, err)
	return &Bot{sched: sched}
}

func TestMonthNavigation(t *testing.T) {
	y, m := prevMonth(2026, 1)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 12, m)

	y, m = prevMonth(2026, 9)
	assert.Equal(t, 2026, y)
	assert.Equal(t, 8, m)

	y, m = nextMonth(2026, 12)
	assert.Equal(t, 2027, y)
	assert.Equal(t, 1, m)

	y, m = nextMonth(2026, 9)
	assert.Equal(t, 2026, y)
	assert.Equal(t, 10, m)
}

func TestMonthOf(t *testing.T) {
	y, m, err := monthOf("2026-09")
	require.NoError(t, err)
	assert.Equal(t, 2026, y)
	assert.Equal(t, 9, m)

	_, _, err = monthOf("сентябрь")
	assert.Error(t, err)
}

func TestCalendarKeyboard(t *testing.T) {
	b := testBot(t)
	today := b.sched.Today()
	y, m := b.currentMonth()

	disabled := map[string]bool{today: true}
	kb := b.calendarKeyboard(y, m, today, disabled)

	// Заголовок, дни недели, недели месяца, навигация, меню.
	require.GreaterOrEqual(t, len(kb.InlineKeyboard), 7)
	assert.Len(t, kb.InlineKeyboard[1], 7)

	selectable := map[string]bool{}
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData == nil {
				continue
			}
			data := *btn.CallbackData
			if len(data) > 5 && data[:5] == "date:" {
				selectable[data[5:]] = true
			}
		}
	}

	// Сегодняшняя дата выключена, завтрашняя кликабельна.
	tomorrow, err := b.sched.AddDays(today, 1)
	require.NoError(t, err)
	assert.False(t, selectable[today])
	if tomorrow[:7] == today[:7] {
		assert.True(t, selectable[tomorrow])
	}

	nav := kb.InlineKeyboard[len(kb.InlineKeyboard)-2]
	require.Len(t, nav, 2)
	py, pm := prevMonth(y, m)
	ny, nm := nextMonth(y, m)
	assert.Equal(t, fmt.Sprintf("cal:%04d-%02d", py, pm), *nav[0].CallbackData)
	assert.Equal(t, fmt.Sprintf("cal:%04d-%02d", ny, nm), *nav[1].CallbackData)
}

func TestTimeSlotsKeyboard(t *testing.T) {
	b := testBot(t)
	kb := b.timeSlotsKeyboard([]string{"12:00", "13:00", "14:00"})

	// Два слота в первом ряду, один во втором, затем возврат к дате.
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Len(t, kb.InlineKeyboard[1], 1)
	assert.Equal(t, "slot:12:00", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "edit:calendar_date", *kb.InlineKeyboard[2][0].CallbackData)
}

func TestErrorMessage(t *testing.T) {
	b := testBot(t)

	assert.Equal(t, "", b.errorMessage(nil))
	assert.Contains(t, b.errorMessage(&booking.ValidationError{Field: "slot", Message: "слот уже занят"}), "слот уже занят")
	assert.Contains(t, b.errorMessage(database.ErrSlotTaken), "уже занято")
	assert.Contains(t, b.errorMessage(database.ErrConfirmInFlight), "обрабатывается")
	assert.Contains(t, b.errorMessage(errors.New("boom")), "Произошла ошибка")
}
