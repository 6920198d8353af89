package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Политики округления итоговой цены.
const (
	RoundingRound     = "round"
	RoundingCeil      = "ceil"
	RoundingFloor     = "floor"
	RoundingNearest10 = "nearest_10"
	RoundingCeilTo50  = "ceil_to_50"
)

type PricingConfig struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name,omitempty"`
	Active         bool      `json:"active"`
	BasePrice      int64     `json:"base_price"`
	MinPrice       int64     `json:"min_price"`
	RoundingPolicy string    `json:"rounding_policy"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type StyleCoefficient struct {
	PricingConfigID int64           `json:"pricing_config_id"`
	StyleID         int64           `json:"style_id"`
	Coefficient     decimal.Decimal `json:"coefficient"`
}

type BodyZoneCoefficient struct {
	PricingConfigID int64           `json:"pricing_config_id"`
	BodyZone        string          `json:"body_zone"`
	Coefficient     decimal.Decimal `json:"coefficient"`
}

type Discount struct {
	ID         int64            `json:"id"`
	Name       string           `json:"name,omitempty"`
	Code       string           `json:"code"`
	Active     bool             `json:"active"`
	Multiplier *decimal.Decimal `json:"multiplier,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
