package service

import (
	"context"
	"strings"

	"igla/internal/domain"
	"igla/internal/metrics"
	"igla/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PricingService собирает входы расчёта из каталога и отдаёт раскладку.
type PricingService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewPricingService(repo domain.Repository, logger *zerolog.Logger) *PricingService {
	return &PricingService{repo: repo, logger: logger}
}

// CalcRequest содержит параметры расчёта цены для одного клиента.
type CalcRequest struct {
	TgID      int64
	StyleID   int64
	BodyZone  string
	PromoCode string
}

// Calculate выбирает активный конфиг, коэффициенты и скидку, затем считает.
// Приоритет скидок: промокод, иначе персональная, иначе без скидки.
func (s *PricingService) Calculate(ctx context.Context, req CalcRequest) (*pricing.Breakdown, error) {
	cfg, err := s.repo.GetActivePricingConfig(ctx)
	if err != nil {
		metrics.IncPricingCalc("config_error")
		return nil, err
	}

	styleCoeff, err := s.repo.GetStyleCoefficient(ctx, cfg.ID, req.StyleID)
	if err != nil {
		metrics.IncPricingCalc("config_error")
		return nil, err
	}
	bodyCoeff, err := s.repo.GetBodyZoneCoefficient(ctx, cfg.ID, req.BodyZone)
	if err != nil {
		metrics.IncPricingCalc("config_error")
		return nil, err
	}

	multiplier, err := s.resolveDiscount(ctx, req.TgID, req.PromoCode)
	if err != nil {
		metrics.IncPricingCalc("config_error")
		return nil, err
	}

	breakdown, err := pricing.Calculate(pricing.Input{
		PricingConfigID:     cfg.ID,
		BasePrice:           cfg.BasePrice,
		MinPrice:            cfg.MinPrice,
		StyleCoefficient:    styleCoeff,
		BodyZoneCoefficient: bodyCoeff,
		DiscountMultiplier:  multiplier,
		RoundingPolicy:      cfg.RoundingPolicy,
	})
	if err != nil {
		metrics.IncPricingCalc("validation_error")
		return nil, err
	}

	metrics.IncPricingCalc("ok")
	s.logger.Debug().
		Int64("tg_id", req.TgID).
		Int64("style_id", req.StyleID).
		Str("body_zone", req.BodyZone).
		Int64("final_price", breakdown.FinalPrice).
		Msg("price calculated")
	return breakdown, nil
}

// Estimate считает предварительную цену для чата: стиль ещё не выбран,
// поэтому его коэффициент берётся нейтральным.
func (s *PricingService) Estimate(ctx context.Context, tgID int64, bodyZone, promoCode string) (*pricing.Breakdown, error) {
	cfg, err := s.repo.GetActivePricingConfig(ctx)
	if err != nil {
		metrics.IncPricingCalc("config_error")
		return nil, err
	}
	bodyCoeff, err := s.repo.GetBodyZoneCoefficient(ctx, cfg.ID, bodyZone)
	if err != nil {
		metrics.IncPricingCalc("config_error")
		return nil, err
	}
	multiplier, err := s.resolveDiscount(ctx, tgID, promoCode)
	if err != nil {
		metrics.IncPricingCalc("config_error")
		return nil, err
	}

	breakdown, err := pricing.Calculate(pricing.Input{
		PricingConfigID:     cfg.ID,
		BasePrice:           cfg.BasePrice,
		MinPrice:            cfg.MinPrice,
		StyleCoefficient:    decimal.NewFromInt(1),
		BodyZoneCoefficient: bodyCoeff,
		DiscountMultiplier:  multiplier,
		RoundingPolicy:      cfg.RoundingPolicy,
	})
	if err != nil {
		metrics.IncPricingCalc("validation_error")
		return nil, err
	}

	metrics.IncPricingCalc("ok")
	return breakdown, nil
}

// resolveDiscount: активный промокод перекрывает персональную скидку.
// Неизвестный или погасший промокод не ошибка, а падение на следующий уровень.
func (s *PricingService) resolveDiscount(ctx context.Context, tgID int64, promoCode string) (decimal.Decimal, error) {
	if code := strings.TrimSpace(promoCode); code != "" {
		discount, err := s.repo.GetActiveDiscountByCode(ctx, code)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if discount != nil && discount.Multiplier != nil {
			return *discount.Multiplier, nil
		}
	}

	if tgID != 0 {
		personal, err := s.repo.GetPersonalDiscountMultiplier(ctx, tgID)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if personal != nil {
			return *personal, nil
		}
	}

	return decimal.NewFromInt(1), nil
}
