package models

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// DefaultDraftTTL время жизни черновика записи в Redis
	DefaultDraftTTL = 24 * 60 * 60 // 24 часа в секундах

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах
)

// Параметры расписания по умолчанию: горизонт 90 дней, слоты 12:00..20:00.
const (
	DefaultDaysAhead        = 90
	DefaultStartHour        = 12
	DefaultEndHourInclusive = 20

	// DefaultStudioTimezone задает гражданский календарь студии; все слоты и
	// границы суток считаются в нём, в БД время хранится в UTC.
	DefaultStudioTimezone = "Europe/Moscow"
)
