package repository

import (
	"context"
	"sync/atomic"
	"time"

	"igla/internal/domain"
	"igla/internal/models"

	"github.com/rs/zerolog"
)

// FailoverDraftRepository переключается на запасное хранилище при отказе
// основного (Redis) и раз в минуту пробует вернуться обратно.
type FailoverDraftRepository struct {
	primary   domain.DraftRepository
	fallback  domain.DraftRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverDraftRepository(primary, fallback domain.DraftRepository, logger *zerolog.Logger) *FailoverDraftRepository {
	return &FailoverDraftRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverDraftRepository) GetDraft(ctx context.Context, chatID int64) (*models.BookingDraft, error) {
	if !r.isDown.Load() {
		draft, err := r.primary.GetDraft(ctx, chatID)
		if err == nil {
			return draft, nil
		}
		r.logger.Error().Err(err).Msg("Primary draft repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		draft, err := r.primary.GetDraft(ctx, chatID)
		if err == nil {
			r.isDown.Store(false)
			return draft, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetDraft(ctx, chatID)
}

func (r *FailoverDraftRepository) SetDraft(ctx context.Context, draft *models.BookingDraft) error {
	if !r.isDown.Load() {
		err := r.primary.SetDraft(ctx, draft)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary draft repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SetDraft(ctx, draft)
}

func (r *FailoverDraftRepository) ClearDraft(ctx context.Context, chatID int64) error {
	if !r.isDown.Load() {
		err := r.primary.ClearDraft(ctx, chatID)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary draft repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.ClearDraft(ctx, chatID)
}

func (r *FailoverDraftRepository) CheckRateLimit(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, chatID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("Primary draft repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.CheckRateLimit(ctx, chatID, limit, window)
}
