package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"igla/internal/availability"
	"igla/internal/config"
	"igla/internal/database"
	"igla/internal/models"
	"igla/internal/schedule"
	"igla/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	srv   *HTTPServer
	db    *database.DB
	sched *schedule.Schedule
}

func setupAPI(t *testing.T, cfg config.APIConfig) *apiFixture {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sched, err := schedule.New(schedule.Policy{DaysAhead: 30, StartHour: 12, EndHourInclusive: 14}, "Europe/Moscow")
	require.NoError(t, err)

	engine := availability.NewEngine(sched, db, &logger)
	pricingSvc := service.NewPricingService(db, &logger)

	return &apiFixture{
		srv:   NewHTTPServer(cfg, engine, pricingSvc, sched, &logger),
		db:    db,
		sched: sched,
	}
}

func openConfig() config.APIConfig {
	return config.APIConfig{Enabled: true, Port: 8080}
}

func (f *apiFixture) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) futureDate(t *testing.T, days int) string {
	t.Helper()
	date, err := f.sched.AddDays(f.sched.Today(), days)
	require.NoError(t, err)
	return date
}

func TestSlotsEndpoint(t *testing.T) {
	f := setupAPI(t, openConfig())
	date := f.futureDate(t, 5)

	startAt, err := f.sched.ComposeStartAt(date, "13:00")
	require.NoError(t, err)
	_, err = f.db.CreateReservation(context.Background(), 100, "client", startAt)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/v1/slots?date="+date, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date  string   `json:"date"`
		Slots []string `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, date, resp.Date)
	assert.Equal(t, []string{"12:00", "14:00"}, resp.Slots)
}

func TestSlotsEndpoint_Validation(t *testing.T) {
	f := setupAPI(t, openConfig())

	rec := f.do(t, http.MethodGet, "/api/v1/slots", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/slots?date=15.09.2026", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/slots?date=2026-09-15", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// Дата за горизонтом: пустой список, не ошибка.
	rec = f.do(t, http.MethodGet, "/api/v1/slots?date=2099-01-01", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Slots []string `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Slots)
}

func TestDisabledDatesEndpoint(t *testing.T) {
	f := setupAPI(t, openConfig())
	date := f.futureDate(t, 3)

	_, err := f.db.ToggleDayOff(context.Background(), date, "")
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/v1/disabled-dates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Dates []string `json:"dates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Dates, date)
}

func TestPricingCalcEndpoint(t *testing.T) {
	f := setupAPI(t, openConfig())
	ctx := context.Background()

	cfg := &models.PricingConfig{Active: true, BasePrice: 1000, MinPrice: 500, RoundingPolicy: models.RoundingCeilTo50}
	require.NoError(t, f.db.CreatePricingConfig(ctx, cfg))
	require.NoError(t, f.db.UpsertStyleCoefficient(ctx, cfg.ID, 7, decimal.RequireFromString("1.1")))
	require.NoError(t, f.db.UpsertBodyZoneCoefficient(ctx, cfg.ID, "arm", decimal.RequireFromString("1.2")))

	rec := f.do(t, http.MethodPost, "/api/v1/pricing/calc",
		`{"style_id": 7, "body_zone": "arm"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RawPrice   string `json:"raw_price"`
		FinalPrice int64  `json:"final_price"`
		Policy     string `json:"rounding_policy"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1320", resp.RawPrice)
	assert.Equal(t, int64(1350), resp.FinalPrice)
	assert.Equal(t, models.RoundingCeilTo50, resp.Policy)
}

func TestPricingCalcEndpoint_Errors(t *testing.T) {
	f := setupAPI(t, openConfig())

	rec := f.do(t, http.MethodPost, "/api/v1/pricing/calc", `{"style_id": 7}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/pricing/calc", "not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Каталог пуст: расчёт невозможен.
	rec = f.do(t, http.MethodPost, "/api/v1/pricing/calc", `{"style_id": 7, "body_zone": "arm"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAuth(t *testing.T) {
	cfg := openConfig()
	cfg.Auth = config.APIAuthConfig{
		Enabled:      true,
		HeaderAPIKey: "x-api-key",
		APIKeys:      []config.APIClientKey{{Key: "secret-key", Name: "site"}},
	}
	f := setupAPI(t, cfg)

	rec := f.do(t, http.MethodGet, "/api/v1/disabled-dates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/disabled-dates", "", map[string]string{"x-api-key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/disabled-dates", "", map[string]string{"x-api-key": "secret-key"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := openConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 2}
	f := setupAPI(t, cfg)

	first := f.do(t, http.MethodGet, "/api/v1/disabled-dates", "", nil)
	assert.Equal(t, http.StatusOK, first.Code)
	second := f.do(t, http.MethodGet, "/api/v1/disabled-dates", "", nil)
	assert.Equal(t, http.StatusOK, second.Code)

	third := f.do(t, http.MethodGet, "/api/v1/disabled-dates", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
}
