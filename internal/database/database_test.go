package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"igla/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := testLogger()
	db, err := NewDB(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "db_test_dir")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "dir", "test.db")
	logger := testLogger()

	db, err := NewDB(dbPath, logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestCreateReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	startAt := time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC)

	orderID, err := db.CreateReservation(ctx, 100, "client", startAt)
	require.NoError(t, err)
	assert.Greater(t, orderID, int64(0))

	order, err := db.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, order.StartAt.Equal(startAt))

	exists, err := db.ExistsOrderWithStartAt(ctx, startAt)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateReservation_SlotTaken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	startAt := time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC)

	_, err := db.CreateReservation(ctx, 100, "first", startAt)
	require.NoError(t, err)

	// Другой пользователь, тот же инстант: уникальный индекс решает.
	_, err = db.CreateReservation(ctx, 200, "second", startAt)
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestCreateReservation_ConcurrentSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	startAt := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := db.CreateReservation(ctx, int64(1000+n), "racer", startAt)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSlotTaken):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCreateReservation_UpsertsUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.CreateReservation(ctx, 100, "old_nick", time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = db.CreateReservation(ctx, 100, "new_nick", time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	user, err := db.GetUserByTgID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "new_nick", user.TgNickname)

	// Обе записи принадлежат одному пользователю.
	from := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	orders, err := db.ListOrdersWithUsers(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, orders[0].UserID, orders[1].UserID)
}

func TestListOrderStartAtBetween(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	inRange := time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC)
	boundary := time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)
	_, err := db.CreateReservation(ctx, 100, "a", inRange)
	require.NoError(t, err)
	_, err = db.CreateReservation(ctx, 100, "a", boundary)
	require.NoError(t, err)

	from := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	got, err := db.ListOrderStartAtBetween(ctx, from, boundary)
	require.NoError(t, err)
	require.Len(t, got, 1) // правая граница исключается
	assert.True(t, got[0].Equal(inRange))
}

func TestToggleDayOff(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	nowOff, err := db.ToggleDayOff(ctx, "2026-09-15", "отпуск")
	require.NoError(t, err)
	assert.True(t, nowOff)

	isOff, err := db.IsDayOff(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.True(t, isOff)

	// Повторный вызов снимает выходной.
	nowOff, err = db.ToggleDayOff(ctx, "2026-09-15", "")
	require.NoError(t, err)
	assert.False(t, nowOff)

	isOff, err = db.IsDayOff(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.False(t, isOff)
}

func TestToggleBlockedSlot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	nowBlocked, err := db.ToggleBlockedSlot(ctx, "2026-09-15", "14:00", "уборка")
	require.NoError(t, err)
	assert.True(t, nowBlocked)

	blocked, err := db.ListBlockedSlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.True(t, blocked["14:00"])

	nowBlocked, err = db.ToggleBlockedSlot(ctx, "2026-09-15", "14:00", "")
	require.NoError(t, err)
	assert.False(t, nowBlocked)

	blocked, err = db.ListBlockedSlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestListExceptionsInRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.ToggleDayOff(ctx, "2026-09-15", "")
	require.NoError(t, err)
	_, err = db.ToggleDayOff(ctx, "2026-10-01", "")
	require.NoError(t, err)
	_, err = db.ToggleBlockedSlot(ctx, "2026-09-16", "12:00", "")
	require.NoError(t, err)
	_, err = db.ToggleBlockedSlot(ctx, "2026-09-16", "13:00", "")
	require.NoError(t, err)

	dayOffs, err := db.ListDayOffDates(ctx, "2026-09-01", "2026-09-30")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2026-09-15": true}, dayOffs)

	blocked, err := db.ListBlockedSlotsInRange(ctx, "2026-09-01", "2026-09-30")
	require.NoError(t, err)
	require.Contains(t, blocked, "2026-09-16")
	assert.True(t, blocked["2026-09-16"]["12:00"])
	assert.True(t, blocked["2026-09-16"]["13:00"])
}

func TestPersonalDiscount(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.CreateOrUpdateUser(ctx, 100, "client")
	require.NoError(t, err)

	got, err := db.GetPersonalDiscountMultiplier(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, got)

	mult := decimal.RequireFromString("0.85")
	require.NoError(t, db.SetPersonalDiscount(ctx, 100, &mult))

	got, err = db.GetPersonalDiscountMultiplier(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(mult))

	user, err := db.GetUserByTgID(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, user.PersonalDiscount)
	assert.True(t, user.PersonalDiscount.Equal(mult))
}

func TestGetUserByTgID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetUserByTgID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestActivePricingConfig(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.GetActivePricingConfig(ctx)
	require.ErrorIs(t, err, ErrNoActivePricingConfig)

	first := &models.PricingConfig{
		Name:           "old",
		Active:         true,
		BasePrice:      1000,
		MinPrice:       500,
		RoundingPolicy: models.RoundingRound,
	}
	require.NoError(t, db.CreatePricingConfig(ctx, first))

	second := &models.PricingConfig{
		Name:           "fresh",
		Active:         true,
		BasePrice:      1500,
		MinPrice:       700,
		RoundingPolicy: models.RoundingCeilTo50,
	}
	require.NoError(t, db.CreatePricingConfig(ctx, second))

	// При равных updated_at побеждает больший id.
	active, err := db.GetActivePricingConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", active.Name)
	assert.Equal(t, int64(1500), active.BasePrice)
}

func TestCoefficients(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	cfg := &models.PricingConfig{Active: true, BasePrice: 1000, MinPrice: 500, RoundingPolicy: models.RoundingRound}
	require.NoError(t, db.CreatePricingConfig(ctx, cfg))

	_, err := db.GetStyleCoefficient(ctx, cfg.ID, 7)
	require.ErrorIs(t, err, ErrStyleCoefficientMissing)
	_, err = db.GetBodyZoneCoefficient(ctx, cfg.ID, "arm")
	require.ErrorIs(t, err, ErrBodyZoneCoefficientMissing)

	require.NoError(t, db.UpsertStyleCoefficient(ctx, cfg.ID, 7, decimal.RequireFromString("1.1")))
	require.NoError(t, db.UpsertBodyZoneCoefficient(ctx, cfg.ID, "arm", decimal.RequireFromString("1.2")))

	style, err := db.GetStyleCoefficient(ctx, cfg.ID, 7)
	require.NoError(t, err)
	assert.True(t, style.Equal(decimal.RequireFromString("1.1")))

	// Upsert перезаписывает значение.
	require.NoError(t, db.UpsertStyleCoefficient(ctx, cfg.ID, 7, decimal.RequireFromString("1.3")))
	style, err = db.GetStyleCoefficient(ctx, cfg.ID, 7)
	require.NoError(t, err)
	assert.True(t, style.Equal(decimal.RequireFromString("1.3")))
}

func TestDiscounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mult := decimal.RequireFromString("0.9")
	require.NoError(t, db.CreateDiscount(ctx, &models.Discount{
		Name: "summer", Code: "SUMMER10", Active: true, Multiplier: &mult,
	}))
	inactive := decimal.RequireFromString("0.5")
	require.NoError(t, db.CreateDiscount(ctx, &models.Discount{
		Name: "dead", Code: "DEAD", Active: false, Multiplier: &inactive,
	}))

	d, err := db.GetActiveDiscountByCode(ctx, "SUMMER10")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, d.Multiplier.Equal(mult))

	d, err = db.GetActiveDiscountByCode(ctx, "DEAD")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = db.GetActiveDiscountByCode(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, d)
}
