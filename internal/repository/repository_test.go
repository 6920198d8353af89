package repository

import (
	"context"
	"testing"
	"time"

	"igla/internal/booking"
	"igla/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisRepo(t *testing.T) (*RedisDraftRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisDraftRepository(client, time.Hour), mr
}

func TestRedisDraftRepository_Roundtrip(t *testing.T) {
	repo, _ := setupRedisRepo(t)
	ctx := context.Background()

	got, err := repo.GetDraft(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	draft := models.NewBookingDraft(42)
	booking.Apply(draft, booking.StepWantCustomSketch, false)
	booking.Apply(draft, booking.StepCalendarDate, "2026-09-15")
	booking.Skip(draft, booking.StepPromoCode)
	draft.SummaryMessageID = 10
	draft.QuestionMessageID = 11

	require.NoError(t, repo.SetDraft(ctx, draft))

	got, err = repo.GetDraft(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.ChatID)
	assert.Equal(t, 10, got.SummaryMessageID)

	// false и nil переживают сериализацию как присутствующие ответы.
	sketch, ok := got.GetBool(booking.StepWantCustomSketch)
	assert.True(t, ok)
	assert.False(t, sketch)
	assert.True(t, got.Answered(booking.StepPromoCode))
	assert.Nil(t, got.Answers[booking.StepPromoCode])

	require.NoError(t, repo.ClearDraft(ctx, 42))
	got, err = repo.GetDraft(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisDraftRepository_TTL(t *testing.T) {
	repo, mr := setupRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetDraft(ctx, models.NewBookingDraft(42)))

	mr.FastForward(2 * time.Hour)

	got, err := repo.GetDraft(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisDraftRepository_RateLimit(t *testing.T) {
	repo, mr := setupRedisRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := repo.CheckRateLimit(ctx, 42, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, 42, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Окно истекло, счётчик начинается заново.
	mr.FastForward(2 * time.Minute)
	allowed, err = repo.CheckRateLimit(ctx, 42, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryDraftRepository(t *testing.T) {
	repo := NewMemoryDraftRepository(time.Hour)
	ctx := context.Background()

	draft := models.NewBookingDraft(42)
	require.NoError(t, repo.SetDraft(ctx, draft))

	got, err := repo.GetDraft(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, draft, got)

	require.NoError(t, repo.ClearDraft(ctx, 42))
	got, err = repo.GetDraft(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	allowed, err := repo.CheckRateLimit(ctx, 42, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = repo.CheckRateLimit(ctx, 42, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFailoverDraftRepository_FallsBack(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	// Redis без сервера: любой вызов падает, работает запасная память.
	deadClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	primary := NewRedisDraftRepository(deadClient, time.Hour)
	fallback := NewMemoryDraftRepository(time.Hour)
	repo := NewFailoverDraftRepository(primary, fallback, &logger)

	draft := models.NewBookingDraft(42)
	require.NoError(t, repo.SetDraft(ctx, draft))

	got, err := repo.GetDraft(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.ChatID)
}

func TestFailoverDraftRepository_PrimaryPreferred(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	primary, _ := setupRedisRepo(t)
	fallback := NewMemoryDraftRepository(time.Hour)
	repo := NewFailoverDraftRepository(primary, fallback, &logger)

	require.NoError(t, repo.SetDraft(ctx, models.NewBookingDraft(42)))

	// Запись ушла в основное хранилище, запасное пусто.
	fromPrimary, err := primary.GetDraft(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, fromPrimary)

	fromFallback, err := fallback.GetDraft(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, fromFallback)
}
