package pricing

import (
	"fmt"

	"igla/internal/models"

	"github.com/shopspring/decimal"
)

var (
	one   = decimal.NewFromInt(1)
	ten   = decimal.NewFromInt(10)
	fifty = decimal.NewFromInt(50)
)

// Breakdown несет полную раскладку расчёта. Наружу всегда отдаётся целиком,
// а не только итог: так расчёт можно проверить по каждому шагу.
type Breakdown struct {
	PricingConfigID     int64           `json:"pricing_config_id"`
	BasePrice           int64           `json:"base_price"`
	MinPrice            int64           `json:"min_price"`
	StyleCoefficient    decimal.Decimal `json:"style_coefficient"`
	BodyZoneCoefficient decimal.Decimal `json:"body_zone_coefficient"`
	RawPrice            decimal.Decimal `json:"raw_price"`
	BoundedPrice        decimal.Decimal `json:"bounded_price"`
	DiscountMultiplier  decimal.Decimal `json:"discount_multiplier"`
	FinalPrice          int64           `json:"final_price"`
	RoundingPolicy      string          `json:"rounding_policy"`
}

// ValidationError описывает ошибку значения конкретного поля расчёта.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// PositiveDecimal отклоняет неположительные значения, называя поле.
func PositiveDecimal(value decimal.Decimal, field string) (decimal.Decimal, error) {
	if value.Sign() <= 0 {
		return decimal.Decimal{}, &ValidationError{Field: field, Reason: "must be > 0"}
	}
	return value, nil
}

// DiscountMultiplier проверяет попадание множителя скидки в (0, 1].
func DiscountMultiplier(value decimal.Decimal) (decimal.Decimal, error) {
	if value.Sign() <= 0 || value.GreaterThan(one) {
		return decimal.Decimal{}, &ValidationError{
			Field:  "discount multiplier",
			Reason: "must be in range (0, 1]",
		}
	}
	return value, nil
}

// Round применяет политику округления к десятичному значению.
// Неизвестная политика это жёсткая ошибка, не молчаливый дефолт.
func Round(value decimal.Decimal, policy string) (int64, error) {
	switch policy {
	case models.RoundingRound:
		// Половина округляется вверх (для положительных цен).
		return value.Round(0).IntPart(), nil
	case models.RoundingCeil:
		return value.Ceil().IntPart(), nil
	case models.RoundingFloor:
		return value.Floor().IntPart(), nil
	case models.RoundingNearest10:
		return value.Div(ten).Round(0).Mul(ten).IntPart(), nil
	case models.RoundingCeilTo50:
		return value.Div(fifty).Ceil().Mul(fifty).IntPart(), nil
	default:
		return 0, &ValidationError{Field: "rounding policy", Reason: fmt.Sprintf("unknown: %q", policy)}
	}
}

// Input содержит проверенные входы чистого расчёта.
type Input struct {
	PricingConfigID     int64
	BasePrice           int64
	MinPrice            int64
	StyleCoefficient    decimal.Decimal
	BodyZoneCoefficient decimal.Decimal
	DiscountMultiplier  decimal.Decimal
	RoundingPolicy      string
}

// Calculate выполняет расчёт: raw = base × styleCoeff × bodyCoeff,
// bounded = max(min, raw), затем скидка и округление по политике.
// Чистая функция поверх десятичной арифметики, без I/O.
func Calculate(in Input) (*Breakdown, error) {
	base, err := PositiveDecimal(decimal.NewFromInt(in.BasePrice), "base_price")
	if err != nil {
		return nil, err
	}
	minimum, err := PositiveDecimal(decimal.NewFromInt(in.MinPrice), "min_price")
	if err != nil {
		return nil, err
	}
	styleCoeff, err := PositiveDecimal(in.StyleCoefficient, "style coefficient")
	if err != nil {
		return nil, err
	}
	bodyCoeff, err := PositiveDecimal(in.BodyZoneCoefficient, "body zone coefficient")
	if err != nil {
		return nil, err
	}
	multiplier, err := DiscountMultiplier(in.DiscountMultiplier)
	if err != nil {
		return nil, err
	}

	rawPrice := base.Mul(styleCoeff).Mul(bodyCoeff)
	boundedPrice := decimal.Max(minimum, rawPrice)
	discounted := boundedPrice.Mul(multiplier)

	final, err := Round(discounted, in.RoundingPolicy)
	if err != nil {
		return nil, err
	}
	if final < 0 {
		final = 0
	}

	return &Breakdown{
		PricingConfigID:     in.PricingConfigID,
		BasePrice:           in.BasePrice,
		MinPrice:            in.MinPrice,
		StyleCoefficient:    styleCoeff,
		BodyZoneCoefficient: bodyCoeff,
		RawPrice:            rawPrice,
		BoundedPrice:        boundedPrice,
		DiscountMultiplier:  multiplier,
		FinalPrice:          final,
		RoundingPolicy:      in.RoundingPolicy,
	}, nil
}
