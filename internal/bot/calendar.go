package bot

import (
	"fmt"
	"time"

	"igla/internal/schedule"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// calendarKeyboard строит инлайн-календарь месяца. Даты вне горизонта
// бронирования и из disabledDates показываются точкой и не нажимаются.
func (b *Bot) calendarKeyboard(year, month int, today string, disabledDates map[string]bool) tgbotapi.InlineKeyboardMarkup {
	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	weekdayOffset := int(firstDay.Weekday())
	if weekdayOffset == 0 {
		weekdayOffset = 7 // сетка с понедельника
	}
	daysInMonth := firstDay.AddDate(0, 1, -1).Day()

	rows := make([][]tgbotapi.InlineKeyboardButton, 0)

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d", monthNames[month-1], year), "noop"),
	})

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Пн", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Вт", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Ср", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Чт", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Пт", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Сб", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Вс", "noop"),
	})

	day := 1
	for day <= daysInMonth {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for col := 1; col <= 7; col++ {
			if len(rows) == 2 && col < weekdayOffset {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", "noop"))
				continue
			}
			if day > daysInMonth {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", "noop"))
				continue
			}
			dateStr := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
			selectable := b.sched.IsDateAvailable(dateStr, today) && !disabledDates[dateStr]
			if selectable {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%d", day), fmt.Sprintf("date:%s", dateStr)))
			} else {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("·", "noop"))
			}
			day++
		}
		rows = append(rows, row)
	}

	prevYear, prevMon := prevMonth(year, month)
	nextYear, nextMon := nextMonth(year, month)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("←", fmt.Sprintf("cal:%04d-%02d", prevYear, prevMon)),
		tgbotapi.NewInlineKeyboardButtonData("→", fmt.Sprintf("cal:%04d-%02d", nextYear, nextMon)),
	})
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", "menu"),
	})

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// timeSlotsKeyboard показывает свободные слоты выбранной даты, по две кнопки в ряд.
func (b *Bot) timeSlotsKeyboard(slots []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	row := make([]tgbotapi.InlineKeyboardButton, 0, 2)
	for _, slot := range slots {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(slot, fmt.Sprintf("slot:%s", slot)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 2)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Другая дата", "edit:calendar_date"),
	})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func prevMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

func nextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// monthOf разбирает "YYYY-MM" из колбэка навигации.
func monthOf(data string) (int, int, error) {
	t, err := time.Parse("2006-01", data)
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), int(t.Month()), nil
}

// currentMonth возвращает месяц сегодняшней даты студии.
func (b *Bot) currentMonth() (int, int) {
	t, err := time.Parse(schedule.DateLayout, b.sched.Today())
	if err != nil {
		now := time.Now()
		return now.Year(), int(now.Month())
	}
	return t.Year(), int(t.Month())
}
