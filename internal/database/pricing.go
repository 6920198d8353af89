package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"igla/internal/models"

	"github.com/shopspring/decimal"
)

// GetActivePricingConfig возвращает действующую конфигурацию. Если активных
// несколько, берётся самая свежая по updated_at, при равенстве с большим id.
func (db *DB) GetActivePricingConfig(ctx context.Context) (*models.PricingConfig, error) {
	var (
		cfg  models.PricingConfig
		name sql.NullString
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, name, active, base_price, min_price, rounding_policy, created_at, updated_at
         FROM pricing_config WHERE active = 1
         ORDER BY updated_at DESC, id DESC LIMIT 1`,
	).Scan(&cfg.ID, &name, &cfg.Active, &cfg.BasePrice, &cfg.MinPrice, &cfg.RoundingPolicy, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoActivePricingConfig
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active pricing config: %w", err)
	}
	cfg.Name = name.String
	return &cfg, nil
}

func (db *DB) GetStyleCoefficient(ctx context.Context, pricingConfigID, styleID int64) (decimal.Decimal, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		`SELECT coefficient FROM pricing_style_coefficient
         WHERE pricing_config_id = ? AND style_id = ?`,
		pricingConfigID, styleID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return decimal.Decimal{}, ErrStyleCoefficientMissing
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to get style coefficient: %w", err)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse style coefficient %q: %w", raw, err)
	}
	return d, nil
}

func (db *DB) GetBodyZoneCoefficient(ctx context.Context, pricingConfigID int64, bodyZone string) (decimal.Decimal, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		`SELECT coefficient FROM pricing_body_zone_coefficient
         WHERE pricing_config_id = ? AND body_zone = ?`,
		pricingConfigID, bodyZone,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return decimal.Decimal{}, ErrBodyZoneCoefficientMissing
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to get body zone coefficient: %w", err)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse body zone coefficient %q: %w", raw, err)
	}
	return d, nil
}

// GetActiveDiscountByCode ищет активную скидку по точному коду; nil значит нет.
func (db *DB) GetActiveDiscountByCode(ctx context.Context, code string) (*models.Discount, error) {
	var (
		d    models.Discount
		name sql.NullString
		raw  sql.NullString
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, name, code, active, multiplier, created_at
         FROM discounts WHERE active = 1 AND code = ? LIMIT 1`, code,
	).Scan(&d.ID, &name, &d.Code, &d.Active, &raw, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}
	d.Name = name.String
	if raw.Valid {
		m, err := decimal.NewFromString(raw.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse discount multiplier %q: %w", raw.String, err)
		}
		d.Multiplier = &m
	}
	return &d, nil
}

// GetPersonalDiscountMultiplier возвращает персональную скидку пользователя,
// nil: пользователь неизвестен или скидки нет.
func (db *DB) GetPersonalDiscountMultiplier(ctx context.Context, tgID int64) (*decimal.Decimal, error) {
	var raw sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT personal_discount FROM users WHERE tg_id = ?`, tgID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get personal discount: %w", err)
	}
	if !raw.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse personal discount %q: %w", raw.String, err)
	}
	return &d, nil
}

// Админские операции каталога.

func (db *DB) CreatePricingConfig(ctx context.Context, cfg *models.PricingConfig) error {
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx,
		`INSERT INTO pricing_config (name, active, base_price, min_price, rounding_policy, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cfg.Name, cfg.Active, cfg.BasePrice, cfg.MinPrice, cfg.RoundingPolicy, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create pricing config: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	cfg.ID = id
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	return nil
}

func (db *DB) UpsertStyleCoefficient(ctx context.Context, pricingConfigID, styleID int64, coefficient decimal.Decimal) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO pricing_style_coefficient (pricing_config_id, style_id, coefficient)
         VALUES (?, ?, ?)
         ON CONFLICT(pricing_config_id, style_id) DO UPDATE SET coefficient = excluded.coefficient`,
		pricingConfigID, styleID, coefficient.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert style coefficient: %w", err)
	}
	return nil
}

func (db *DB) UpsertBodyZoneCoefficient(ctx context.Context, pricingConfigID int64, bodyZone string, coefficient decimal.Decimal) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO pricing_body_zone_coefficient (pricing_config_id, body_zone, coefficient)
         VALUES (?, ?, ?)
         ON CONFLICT(pricing_config_id, body_zone) DO UPDATE SET coefficient = excluded.coefficient`,
		pricingConfigID, bodyZone, coefficient.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert body zone coefficient: %w", err)
	}
	return nil
}

func (db *DB) CreateDiscount(ctx context.Context, d *models.Discount) error {
	var raw any
	if d.Multiplier != nil {
		raw = d.Multiplier.String()
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO discounts (name, code, active, multiplier) VALUES (?, ?, ?, ?)`,
		d.Name, d.Code, d.Active, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to create discount: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	d.ID = id
	return nil
}
