package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID         int64  `json:"id"`
	TgID       int64  `json:"tg_id"`       // Уникальный ID Telegram
	TgNickname string `json:"tg_nickname"` // Отображаемый ник
	// Персональная скидка-множитель в (0, 1]; nil значит скидки нет.
	PersonalDiscount *decimal.Decimal `json:"personal_discount,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}
