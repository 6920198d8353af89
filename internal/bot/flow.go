package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"igla/internal/booking"
	"igla/internal/models"
	"igla/internal/schedule"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Анкета живёт в двух сообщениях: сверху сводка ответов, снизу текущий
// вопрос с клавиатурой. Оба редактируются на месте, чат не замусоривается.

func (b *Bot) renderFlow(ctx context.Context, draft *models.BookingDraft) {
	step := booking.NextMissingStep(draft)

	summary := booking.RenderSummary(draft)
	b.upsertSummaryMessage(ctx, draft, summary, b.summaryKeyboard(draft))

	question := booking.QuestionText(step)
	if step == booking.StepConfirm {
		question += b.priceEstimateLine(ctx, draft)
	}
	keyboard := b.stepKeyboard(ctx, draft, step)
	b.upsertQuestionMessage(ctx, draft, question, keyboard)

	if err := b.drafts.Save(ctx, draft); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", draft.ChatID).Msg("Failed to save draft after render")
	}
}

func (b *Bot) upsertSummaryMessage(ctx context.Context, draft *models.BookingDraft, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if draft.SummaryMessageID != 0 {
		if _, err := b.tg.EditMessage(draft.ChatID, draft.SummaryMessageID, text, keyboard); err == nil || isNotModified(err) {
			return
		}
		// Сообщение могли удалить руками: шлём заново.
	}
	var (
		msg tgbotapi.Message
		err error
	)
	if keyboard != nil {
		msg, err = b.tg.SendWithInlineKeyboard(draft.ChatID, text, *keyboard)
	} else {
		msg, err = b.tg.SendMessage(draft.ChatID, text)
	}
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", draft.ChatID).Msg("Failed to send summary message")
		return
	}
	draft.SummaryMessageID = msg.MessageID
}

// summaryKeyboard вешает на сводку кнопки правки уже отвеченных шагов.
func (b *Bot) summaryKeyboard(draft *models.BookingDraft) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	row := make([]tgbotapi.InlineKeyboardButton, 0, 2)
	for _, field := range booking.Fields {
		if !draft.Answered(field.Key) {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✏️ "+field.Label, "edit:"+field.Key))
		if len(row) == 2 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 2)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (b *Bot) upsertQuestionMessage(ctx context.Context, draft *models.BookingDraft, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if draft.QuestionMessageID != 0 {
		if _, err := b.tg.EditMessage(draft.ChatID, draft.QuestionMessageID, text, &keyboard); err == nil || isNotModified(err) {
			return
		}
	}
	msg, err := b.tg.SendWithInlineKeyboard(draft.ChatID, text, keyboard)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", draft.ChatID).Msg("Failed to send question message")
		return
	}
	draft.QuestionMessageID = msg.MessageID
}

// priceEstimateLine добавляет к подтверждению ориентир по цене. Проблемы
// каталога цен видит оператор в логах, пользователю анкету они не ломают.
func (b *Bot) priceEstimateLine(ctx context.Context, draft *models.BookingDraft) string {
	zone := draft.GetString(booking.StepBodyPart)
	if zone == "" {
		return ""
	}
	promo := draft.GetString(booking.StepPromoCode)
	breakdown, err := b.pricing.Estimate(ctx, draft.ChatID, zone, promo)
	if err != nil {
		b.logger.Warn().Err(err).Str("body_zone", zone).Msg("Price estimate unavailable")
		return ""
	}
	return fmt.Sprintf("\n\n💰 Предварительная стоимость: от %d ₽", breakdown.FinalPrice)
}

// isNotModified: повторная правка тем же текстом не ошибка.
func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// stepKeyboard собирает клавиатуру текущего шага анкеты.
func (b *Bot) stepKeyboard(ctx context.Context, draft *models.BookingDraft, step string) tgbotapi.InlineKeyboardMarkup {
	switch step {
	case booking.StepWantCustomSketch:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Да", "sketch:1"),
				tgbotapi.NewInlineKeyboardButtonData("Нет", "sketch:0"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", "menu"),
			),
		)

	case booking.StepBodyPart:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0)
		row := make([]tgbotapi.InlineKeyboardButton, 0, 2)
		for _, key := range booking.BodyPartKeys() {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				booking.BodyPartOptions[key], "bodypart:"+key))
			if len(row) == 2 {
				rows = append(rows, row)
				row = make([]tgbotapi.InlineKeyboardButton, 0, 2)
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", "menu"),
		})
		return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}

	case booking.StepCalendarDate:
		return b.calendarForMonthOfDraft(ctx, draft)

	case booking.StepCalendarTime:
		date := draft.GetString(booking.StepCalendarDate)
		slots, err := b.bookings.AvailableSlots(ctx, date)
		if err != nil {
			b.logger.Error().Err(err).Str("date", date).Msg("Failed to load slots")
			slots = nil
		}
		return b.timeSlotsKeyboard(slots)

	case booking.StepPromoCode:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Пропустить", "skip:"+booking.StepPromoCode),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", "menu"),
			),
		)

	default: // confirm
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", "confirm"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📅 Изменить дату", "edit:"+booking.StepCalendarDate),
				tgbotapi.NewInlineKeyboardButtonData("🔄 Сначала", "reset"),
			),
		)
	}
}

// calendarForMonthOfDraft рисует месяц выбранной даты либо текущий.
func (b *Bot) calendarForMonthOfDraft(ctx context.Context, draft *models.BookingDraft) tgbotapi.InlineKeyboardMarkup {
	year, month := b.currentMonth()
	if chosen := draft.GetString(booking.StepCalendarDate); chosen != "" {
		if t, err := time.Parse(schedule.DateLayout, chosen); err == nil {
			year, month = t.Year(), int(t.Month())
		}
	}
	return b.calendarAt(ctx, year, month)
}

func (b *Bot) calendarAt(ctx context.Context, year, month int) tgbotapi.InlineKeyboardMarkup {
	disabled, err := b.bookings.DisabledDates(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to load disabled dates")
		disabled = map[string]bool{}
	}
	return b.calendarKeyboard(year, month, b.sched.Today(), disabled)
}
