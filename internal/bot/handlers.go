package bot

import (
	"context"
	"fmt"
	"strings"

	"igla/internal/booking"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const welcomeText = `Привет! Я бот студии. Помогу записаться на сеанс.

Нажмите «Записаться», чтобы заполнить короткую анкету.`

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID

	if message.IsCommand() {
		b.handleCommand(ctx, update)
		return
	}

	// Свободный текст осмыслен только на шаге промокода.
	draft, err := b.drafts.GetOrCreate(ctx, chatID)
	if err != nil {
		b.sendMessage(chatID, b.errorMessage(err))
		return
	}
	if booking.NextMissingStep(draft) == booking.StepPromoCode {
		draft, err = b.bookings.SetAnswer(ctx, chatID, booking.StepPromoCode, message.Text)
		if err != nil {
			b.sendMessage(chatID, b.errorMessage(err))
			return
		}
		// Текст пользователя убираем, анкета остаётся в двух сообщениях.
		if err := b.tg.DeleteMessage(chatID, message.MessageID); err != nil {
			b.logger.Debug().Err(err).Msg("Failed to delete promo message")
		}
		b.renderFlow(ctx, draft)
		return
	}

	b.sendMainMenu(chatID)
}

func (b *Bot) handleCommand(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID
	userID := message.From.ID

	switch message.Command() {
	case "start":
		if _, err := b.repo.CreateOrUpdateUser(ctx, userID, message.From.UserName); err != nil {
			b.logger.Error().Err(err).Int64("tg_id", userID).Msg("Failed to upsert user")
		}
		b.sendMainMenu(chatID)

	case "book":
		b.startBooking(ctx, chatID)

	case "cancel":
		if err := b.drafts.Clear(ctx, chatID); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to clear draft")
		}
		b.sendMainMenu(chatID)

	case "dayoff":
		b.handleDayOffCommand(ctx, update)

	case "block":
		b.handleBlockCommand(ctx, update)

	case "export":
		b.handleExportCommand(ctx, update)

	default:
		b.sendMessage(chatID, "Неизвестная команда. Нажмите /start.")
	}
}

func (b *Bot) sendMainMenu(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Записаться", "book"),
		),
	)
	if _, err := b.tg.SendWithInlineKeyboard(chatID, welcomeText, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send main menu")
	}
}

func (b *Bot) startBooking(ctx context.Context, chatID int64) {
	draft, err := b.drafts.GetOrCreate(ctx, chatID)
	if err != nil {
		b.sendMessage(chatID, b.errorMessage(err))
		return
	}
	if draft.OrderID != 0 {
		// Прошлая анкета уже превратилась в запись: начинаем новую.
		draft.ClearAnswers()
	}
	b.renderFlow(ctx, draft)
}

// handleDayOffCommand: /dayoff YYYY-MM-DD [причина], переключить выходной.
func (b *Bot) handleDayOffCommand(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID
	userID := message.From.ID

	if !b.isAdmin(userID) {
		b.sendMessage(chatID, "Команда доступна только администраторам.")
		return
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) < 1 {
		b.sendMessage(chatID, "Использование: /dayoff YYYY-MM-DD [причина]")
		return
	}
	date := args[0]
	reason := strings.Join(args[1:], " ")

	nowOff, err := b.bookings.ToggleDayOff(ctx, userID, date, reason)
	if err != nil {
		b.sendMessage(chatID, b.errorMessage(err))
		return
	}
	if nowOff {
		b.sendMessage(chatID, fmt.Sprintf("📵 %s — теперь выходной.", date))
	} else {
		b.sendMessage(chatID, fmt.Sprintf("✅ %s — снова рабочий день.", date))
	}
}

// handleBlockCommand: /block YYYY-MM-DD HH:MM [причина], переключить слот.
func (b *Bot) handleBlockCommand(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID
	userID := message.From.ID

	if !b.isAdmin(userID) {
		b.sendMessage(chatID, "Команда доступна только администраторам.")
		return
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) < 2 {
		b.sendMessage(chatID, "Использование: /block YYYY-MM-DD HH:MM [причина]")
		return
	}
	date, slot := args[0], args[1]
	reason := strings.Join(args[2:], " ")

	nowBlocked, err := b.bookings.ToggleBlockedSlot(ctx, userID, date, slot, reason)
	if err != nil {
		b.sendMessage(chatID, b.errorMessage(err))
		return
	}
	if nowBlocked {
		b.sendMessage(chatID, fmt.Sprintf("⛔ %s %s заблокирован.", date, slot))
	} else {
		b.sendMessage(chatID, fmt.Sprintf("✅ %s %s снова свободен.", date, slot))
	}
}
