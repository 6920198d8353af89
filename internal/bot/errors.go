package bot

import (
	"errors"

	"igla/internal/booking"
	"igla/internal/database"
)

func (b *Bot) errorMessage(err error) string {
	if err == nil {
		return ""
	}

	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		return "⚠️ " + vErr.Message
	}

	if errors.Is(err, database.ErrSlotTaken) {
		return "⚠️ Это время уже занято. Пожалуйста, выберите другое."
	}

	if errors.Is(err, database.ErrConfirmInFlight) {
		return "⏳ Подтверждение уже обрабатывается, подождите секунду."
	}

	return "❌ Произошла ошибка при обработке вашего запроса. Пожалуйста, попробуйте позже."
}
