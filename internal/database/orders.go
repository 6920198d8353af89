package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"igla/internal/models"
)

// CreateReservation в одной транзакции создаёт/обновляет пользователя по
// tg_id и вставляет запись с данным UTC start_at. Конфликт по start_at
// возвращается как ErrSlotTaken.
func (db *DB) CreateReservation(ctx context.Context, tgID int64, nickname string, startAt time.Time) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	userID, err := upsertUserTx(ctx, tx, tgID, nickname)
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, start_at) VALUES (?, ?)`,
		userID, startAt.UTC().Format(startAtLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrSlotTaken
		}
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrSlotTaken
		}
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.logger.Info().Int64("order_id", orderID).Int64("tg_id", tgID).
		Time("start_at", startAt.UTC()).Msg("Создана запись")
	return orderID, nil
}

// ListOrderStartAtBetween возвращает start_at записей в [from, to).
func (db *DB) ListOrderStartAtBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT start_at FROM orders WHERE start_at >= ? AND start_at < ? ORDER BY start_at`,
		from.UTC().Format(startAtLayout), to.UTC().Format(startAtLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order start times: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan start_at: %w", err)
		}
		t, err := time.Parse(startAtLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse start_at %q: %w", raw, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ExistsOrderWithStartAt проверяет занятость конкретного инстанта.
func (db *DB) ExistsOrderWithStartAt(ctx context.Context, startAt time.Time) (bool, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE start_at = ?`,
		startAt.UTC().Format(startAtLayout),
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check order existence: %w", err)
	}
	return true, nil
}

func (db *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var (
		order models.Order
		raw   string
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, tattoo_id, sessions, price, start_at, created_at
         FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.UserID, &order.TattooID, &order.Sessions, &order.Price, &raw, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	order.StartAt, err = time.Parse(startAtLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start_at %q: %w", raw, err)
	}
	return &order, nil
}

// ListOrdersWithUsers возвращает записи в [from, to) с данными клиентов.
func (db *DB) ListOrdersWithUsers(ctx context.Context, from, to time.Time) ([]models.OrderWithUser, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT o.id, o.user_id, o.tattoo_id, o.sessions, o.price, o.start_at, o.created_at, u.tg_nickname
         FROM orders o JOIN users u ON u.id = o.user_id
         WHERE o.start_at >= ? AND o.start_at < ?
         ORDER BY o.start_at`,
		from.UTC().Format(startAtLayout), to.UTC().Format(startAtLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []models.OrderWithUser
	for rows.Next() {
		var (
			row models.OrderWithUser
			raw string
		)
		if err := rows.Scan(&row.ID, &row.UserID, &row.TattooID, &row.Sessions, &row.Price, &raw, &row.CreatedAt, &row.TgNickname); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		row.StartAt, err = time.Parse(startAtLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse start_at %q: %w", raw, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
