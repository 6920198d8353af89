package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ToggleDayOff атомарно создаёт либо удаляет выходной. Проверка существования
// и запись идут в одной транзакции, иначе два одновременных тумблера могут
// "потерять" одно переключение. Возвращает true, если день теперь нерабочий.
func (db *DB) ToggleDayOff(ctx context.Context, date, reason string) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT date FROM day_off WHERE date = ?`, date).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO day_off (date, reason) VALUES (?, ?)`, date, reason); err != nil {
			return false, fmt.Errorf("failed to insert day off: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to check day off: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM day_off WHERE date = ?`, date); err != nil {
		return false, fmt.Errorf("failed to delete day off: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return false, nil
}

func (db *DB) IsDayOff(ctx context.Context, date string) (bool, error) {
	var existing string
	err := db.QueryRowContext(ctx, `SELECT date FROM day_off WHERE date = ?`, date).Scan(&existing)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check day off: %w", err)
	}
	return true, nil
}

// ListDayOffDates возвращает выходные в [from, to] включительно.
func (db *DB) ListDayOffDates(ctx context.Context, from, to string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT date FROM day_off WHERE date BETWEEN ? AND ?`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list day offs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan day off: %w", err)
		}
		out[date] = true
	}
	return out, rows.Err()
}

// ToggleBlockedSlot повторяет тумблерные семантики для пары (дата, слот).
func (db *DB) ToggleBlockedSlot(ctx context.Context, date, slot, reason string) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT time FROM blocked_slot WHERE date = ? AND time = ?`, date, slot).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blocked_slot (date, time, reason) VALUES (?, ?, ?)`, date, slot, reason); err != nil {
			return false, fmt.Errorf("failed to insert blocked slot: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to check blocked slot: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM blocked_slot WHERE date = ? AND time = ?`, date, slot); err != nil {
		return false, fmt.Errorf("failed to delete blocked slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return false, nil
}

// ListBlockedSlots возвращает заблокированные слоты одного дня.
func (db *DB) ListBlockedSlots(ctx context.Context, date string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT time FROM blocked_slot WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked slots: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("failed to scan blocked slot: %w", err)
		}
		out[slot] = true
	}
	return out, rows.Err()
}

// ListBlockedSlotsInRange возвращает блокировки по дням в [from, to].
func (db *DB) ListBlockedSlotsInRange(ctx context.Context, from, to string) (map[string]map[string]bool, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT date, time FROM blocked_slot WHERE date BETWEEN ? AND ?`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked slots in range: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]bool)
	for rows.Next() {
		var date, slot string
		if err := rows.Scan(&date, &slot); err != nil {
			return nil, fmt.Errorf("failed to scan blocked slot: %w", err)
		}
		if out[date] == nil {
			out[date] = make(map[string]bool)
		}
		out[date][slot] = true
	}
	return out, rows.Err()
}
