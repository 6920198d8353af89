package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrSlotTaken: слот уже занят, сработал уникальный индекс на start_at.
	// Для вызывающего это восстановимый конфликт, не внутренняя ошибка.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrConfirmInFlight: подтверждение этого черновика уже выполняется.
	ErrConfirmInFlight = errors.New("confirmation already in flight")

	ErrUserNotFound = errors.New("user not found")

	// Ошибки конфигурации каталога: для оператора, не для клиента.
	ErrNoActivePricingConfig      = errors.New("active pricing config is not set")
	ErrStyleCoefficientMissing    = errors.New("style coefficient is not configured")
	ErrBodyZoneCoefficientMissing = errors.New("body zone coefficient is not configured")
)

// isUniqueViolation распознаёт нарушение уникального ограничения SQLite.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
