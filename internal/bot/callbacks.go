package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"igla/internal/booking"
	"igla/internal/database"
	"igla/internal/schedule"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID

	// Отвечаем сразу, чтобы убрать "часики"
	if err := b.tg.AnswerCallback(callback.ID, ""); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to answer callback")
	}

	switch {
	case data == "noop":
		return

	case data == "menu":
		if err := b.drafts.Clear(ctx, chatID); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to clear draft")
		}
		b.sendMainMenu(chatID)

	case data == "book":
		b.startBooking(ctx, chatID)

	case data == "reset":
		draft, err := b.drafts.Reset(ctx, chatID)
		if err != nil {
			b.sendMessage(chatID, b.errorMessage(err))
			return
		}
		b.renderFlow(ctx, draft)

	case strings.HasPrefix(data, "sketch:"):
		b.applyAnswer(ctx, chatID, booking.StepWantCustomSketch, strings.TrimPrefix(data, "sketch:"))

	case strings.HasPrefix(data, "bodypart:"):
		b.applyAnswer(ctx, chatID, booking.StepBodyPart, strings.TrimPrefix(data, "bodypart:"))

	case strings.HasPrefix(data, "date:"):
		b.applyAnswer(ctx, chatID, booking.StepCalendarDate, strings.TrimPrefix(data, "date:"))

	case strings.HasPrefix(data, "slot:"):
		b.applyAnswer(ctx, chatID, booking.StepCalendarTime, strings.TrimPrefix(data, "slot:"))

	case strings.HasPrefix(data, "skip:"):
		field := strings.TrimPrefix(data, "skip:")
		draft, err := b.bookings.SkipAnswer(ctx, chatID, field)
		if err != nil {
			b.sendMessage(chatID, b.errorMessage(err))
			return
		}
		b.renderFlow(ctx, draft)

	case strings.HasPrefix(data, "edit:"):
		b.reopenStep(ctx, chatID, strings.TrimPrefix(data, "edit:"))

	case strings.HasPrefix(data, "cal:"):
		b.navigateCalendar(ctx, chatID, strings.TrimPrefix(data, "cal:"))

	case data == "confirm":
		b.handleConfirm(ctx, chatID, userID, callback)
	}
}

func (b *Bot) applyAnswer(ctx context.Context, chatID int64, field, value string) {
	draft, err := b.bookings.SetAnswer(ctx, chatID, field, value)
	if err != nil {
		var vErr *booking.ValidationError
		if errors.As(err, &vErr) {
			b.sendMessage(chatID, "⚠️ "+vErr.Message)
			if draft != nil {
				b.renderFlow(ctx, draft)
			}
			return
		}
		b.sendMessage(chatID, b.errorMessage(err))
		return
	}
	b.renderFlow(ctx, draft)
}

// reopenStep снимает ответ шага, возвращая анкету к нему.
func (b *Bot) reopenStep(ctx context.Context, chatID int64, field string) {
	draft, err := b.drafts.GetOrCreate(ctx, chatID)
	if err != nil {
		b.sendMessage(chatID, b.errorMessage(err))
		return
	}
	delete(draft.Answers, field)
	if field == booking.StepCalendarDate {
		// Время без даты не имеет смысла.
		delete(draft.Answers, booking.StepCalendarTime)
	}
	if err := b.drafts.Save(ctx, draft); err != nil {
		b.sendMessage(chatID, b.errorMessage(err))
		return
	}
	b.renderFlow(ctx, draft)
}

func (b *Bot) navigateCalendar(ctx context.Context, chatID int64, month string) {
	year, mon, err := monthOf(month)
	if err != nil {
		return
	}
	draft, err := b.drafts.GetOrCreate(ctx, chatID)
	if err != nil {
		return
	}
	keyboard := b.calendarAt(ctx, year, mon)
	b.upsertQuestionMessage(ctx, draft, booking.QuestionText(booking.StepCalendarDate), keyboard)
	if err := b.drafts.Save(ctx, draft); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to save draft")
	}
}

func (b *Bot) handleConfirm(ctx context.Context, chatID, userID int64, callback *tgbotapi.CallbackQuery) {
	orderID, err := b.bookings.ConfirmDraft(ctx, chatID, userID, callback.From.UserName)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrConfirmInFlight):
			if answerErr := b.tg.AnswerCallback(callback.ID, "Подтверждение уже обрабатывается"); answerErr != nil {
				b.logger.Debug().Err(answerErr).Msg("Failed to answer callback")
			}
			return

		case errors.Is(err, database.ErrSlotTaken):
			b.sendMessage(chatID, "⚠️ Это время только что заняли. Выберите, пожалуйста, другое.")
			draft, draftErr := b.drafts.GetOrCreate(ctx, chatID)
			if draftErr == nil {
				b.renderFlow(ctx, draft)
			}
			return
		}

		b.sendMessage(chatID, b.errorMessage(err))
		return
	}

	draft, err := b.drafts.GetOrCreate(ctx, chatID)
	if err != nil {
		b.sendMessage(chatID, fmt.Sprintf("✅ Запись №%d подтверждена!", orderID))
		return
	}

	date := draft.GetString(booking.StepCalendarDate)
	slot := draft.GetString(booking.StepCalendarTime)
	human := date
	if t, parseErr := time.Parse(schedule.DateLayout, date); parseErr == nil {
		human = t.Format("02.01.2006")
	}

	text := fmt.Sprintf("✅ Запись №%d подтверждена!\n\n📅 %s в %s (МСК)\n\nЖдём вас в студии.", orderID, human, slot)
	// После подтверждения править поля уже нечего: сводка без кнопок.
	b.upsertSummaryMessage(ctx, draft, booking.RenderSummary(draft), nil)
	b.upsertQuestionMessage(ctx, draft, text, tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", "menu"),
		),
	))
	if err := b.drafts.Save(ctx, draft); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to save draft")
	}
}
