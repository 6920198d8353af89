package service

import (
	"context"
	"time"

	"igla/internal/domain"
	"igla/internal/models"

	"github.com/rs/zerolog"
)

// DraftService дает доступ к черновикам анкеты поверх DraftRepository.
type DraftService struct {
	drafts domain.DraftRepository
	logger *zerolog.Logger
}

func NewDraftService(drafts domain.DraftRepository, logger *zerolog.Logger) *DraftService {
	return &DraftService{
		drafts: drafts,
		logger: logger,
	}
}

// GetOrCreate возвращает черновик чата; отсутствующий создаётся пустым.
func (s *DraftService) GetOrCreate(ctx context.Context, chatID int64) (*models.BookingDraft, error) {
	draft, err := s.drafts.GetDraft(ctx, chatID)
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to get booking draft")
		return nil, err
	}
	if draft == nil {
		draft = models.NewBookingDraft(chatID)
	}
	if draft.Answers == nil {
		draft.Answers = make(map[string]any)
	}
	return draft, nil
}

func (s *DraftService) Save(ctx context.Context, draft *models.BookingDraft) error {
	return s.drafts.SetDraft(ctx, draft)
}

// Clear полностью удаляет черновик (выход в меню).
func (s *DraftService) Clear(ctx context.Context, chatID int64) error {
	return s.drafts.ClearDraft(ctx, chatID)
}

// Reset сбрасывает ответы, сохраняя идентификаторы сообщений UI.
func (s *DraftService) Reset(ctx context.Context, chatID int64) (*models.BookingDraft, error) {
	draft, err := s.GetOrCreate(ctx, chatID)
	if err != nil {
		return nil, err
	}
	draft.ClearAnswers()
	if err := s.drafts.SetDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *DraftService) CheckRateLimit(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error) {
	return s.drafts.CheckRateLimit(ctx, chatID, limit, window)
}
