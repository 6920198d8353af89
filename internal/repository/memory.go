package repository

import (
	"context"
	"sync"
	"time"

	"igla/internal/models"
)

type MemoryDraftRepository struct {
	drafts     sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryDraftRepository(ttl time.Duration) *MemoryDraftRepository {
	return &MemoryDraftRepository{
		ttl: ttl,
	}
}

func (r *MemoryDraftRepository) GetDraft(ctx context.Context, chatID int64) (*models.BookingDraft, error) {
	val, ok := r.drafts.Load(chatID)
	if !ok {
		return nil, nil
	}
	return val.(*models.BookingDraft), nil
}

func (r *MemoryDraftRepository) SetDraft(ctx context.Context, draft *models.BookingDraft) error {
	r.drafts.Store(draft.ChatID, draft)
	return nil
}

func (r *MemoryDraftRepository) ClearDraft(ctx context.Context, chatID int64) error {
	r.drafts.Delete(chatID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryDraftRepository) CheckRateLimit(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(chatID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(chatID, entry)
	return entry.count <= limit, nil
}
