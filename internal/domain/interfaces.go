package domain

import (
	"context"
	"time"

	"igla/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// Repository объединяет транзакционное хранилище сущностей ядра.
type Repository interface {
	// Записи
	CreateReservation(ctx context.Context, tgID int64, nickname string, startAt time.Time) (int64, error)
	ListOrderStartAtBetween(ctx context.Context, from, to time.Time) ([]time.Time, error)
	ExistsOrderWithStartAt(ctx context.Context, startAt time.Time) (bool, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersWithUsers(ctx context.Context, from, to time.Time) ([]models.OrderWithUser, error)

	// Пользователи
	CreateOrUpdateUser(ctx context.Context, tgID int64, nickname string) (int64, error)
	GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error)
	SetPersonalDiscount(ctx context.Context, tgID int64, multiplier *decimal.Decimal) error

	// Исключения расписания
	ToggleDayOff(ctx context.Context, date, reason string) (bool, error)
	IsDayOff(ctx context.Context, date string) (bool, error)
	ListDayOffDates(ctx context.Context, from, to string) (map[string]bool, error)
	ToggleBlockedSlot(ctx context.Context, date, slot, reason string) (bool, error)
	ListBlockedSlots(ctx context.Context, date string) (map[string]bool, error)
	ListBlockedSlotsInRange(ctx context.Context, from, to string) (map[string]map[string]bool, error)

	// Каталог ценообразования
	GetActivePricingConfig(ctx context.Context) (*models.PricingConfig, error)
	GetStyleCoefficient(ctx context.Context, pricingConfigID, styleID int64) (decimal.Decimal, error)
	GetBodyZoneCoefficient(ctx context.Context, pricingConfigID int64, bodyZone string) (decimal.Decimal, error)
	GetActiveDiscountByCode(ctx context.Context, code string) (*models.Discount, error)
	GetPersonalDiscountMultiplier(ctx context.Context, tgID int64) (*decimal.Decimal, error)
}

// DraftRepository хранит черновики анкет по чатам. Черновик должен переживать
// рестарт процесса: возобновление идёт только из сохранённых ответов.
type DraftRepository interface {
	GetDraft(ctx context.Context, chatID int64) (*models.BookingDraft, error)
	SetDraft(ctx context.Context, draft *models.BookingDraft) error
	ClearDraft(ctx context.Context, chatID int64) error
	CheckRateLimit(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error)
}

// EventPublisher публикует события во внутрипроцессную шину.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// TelegramSender описывает минимальную поверхность tgbotapi для моков в тестах.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
