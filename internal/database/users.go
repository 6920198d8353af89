package database

import (
	"context"
	"database/sql"
	"fmt"

	"igla/internal/models"

	"github.com/shopspring/decimal"
)

func upsertUserTx(ctx context.Context, tx *sql.Tx, tgID int64, nickname string) (int64, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO users (tg_id, tg_nickname) VALUES (?, ?)
         ON CONFLICT(tg_id) DO UPDATE SET tg_nickname = excluded.tg_nickname`,
		tgID, nickname,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert user: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE tg_id = ?`, tgID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to resolve user id: %w", err)
	}
	return id, nil
}

// CreateOrUpdateUser делает upsert по tg_id вне транзакции записи.
func (db *DB) CreateOrUpdateUser(ctx context.Context, tgID int64, nickname string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	id, err := upsertUserTx(ctx, tx, tgID, nickname)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

func (db *DB) GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	var (
		user models.User
		raw  sql.NullString
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, tg_id, tg_nickname, personal_discount, created_at FROM users WHERE tg_id = ?`,
		tgID,
	).Scan(&user.ID, &user.TgID, &user.TgNickname, &raw, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if raw.Valid {
		d, err := decimal.NewFromString(raw.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse personal discount %q: %w", raw.String, err)
		}
		user.PersonalDiscount = &d
	}
	return &user, nil
}

// SetPersonalDiscount устанавливает либо снимает (nil) персональную скидку.
func (db *DB) SetPersonalDiscount(ctx context.Context, tgID int64, multiplier *decimal.Decimal) error {
	var value any
	if multiplier != nil {
		value = multiplier.String()
	}
	res, err := db.ExecContext(ctx,
		`UPDATE users SET personal_discount = ? WHERE tg_id = ?`, value, tgID)
	if err != nil {
		return fmt.Errorf("failed to set personal discount: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
