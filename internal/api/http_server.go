package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"igla/internal/availability"
	"igla/internal/config"
	"igla/internal/metrics"
	"igla/internal/schedule"
	"igla/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer поднимает небольшой HTTP API рядом с ботом: расчёт цены и доступность
// слотов для сайта студии.
type HTTPServer struct {
	cfg     config.APIConfig
	engine  *availability.Engine
	pricing *service.PricingService
	sched   *schedule.Schedule
	server  *http.Server
	auth    *HTTPAuth
	logger  *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	engine *availability.Engine,
	pricingSvc *service.PricingService,
	sched *schedule.Schedule,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:     cfg,
		engine:  engine,
		pricing: pricingSvc,
		sched:   sched,
		logger:  logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/slots", srv.handleSlots)
	mux.HandleFunc("/api/v1/disabled-dates", srv.handleDisabledDates)
	mux.HandleFunc("/api/v1/pricing/calc", srv.handlePricingCalc)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler отдаёт собранный обработчик; нужен тестам с httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleSlots: GET /api/v1/slots?date=YYYY-MM-DD, свободные слоты даты.
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse(schedule.DateLayout, dateStr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	if !s.sched.IsDateAvailable(dateStr, s.sched.Today()) {
		writeJSON(w, http.StatusOK, map[string]any{"date": dateStr, "slots": []string{}})
		return
	}

	slots, err := s.engine.AvailableSlots(r.Context(), dateStr)
	if err != nil {
		s.logger.Error().Err(err).Str("date", dateStr).Msg("failed to compute slots")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if slots == nil {
		slots = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"date": dateStr, "slots": slots})
}

// handleDisabledDates: GET /api/v1/disabled-dates, даты без единого
// свободного слота в пределах горизонта бронирования.
func (s *HTTPServer) handleDisabledDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	disabled, err := s.engine.DisabledDates(r.Context(), s.sched.Today())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to compute disabled dates")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	dates := make([]string, 0, len(disabled))
	for date := range disabled {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

// handlePricingCalc: POST /api/v1/pricing/calc, расчёт цены с раскладкой.
func (s *HTTPServer) handlePricingCalc(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type request struct {
		TgID      int64  `json:"tg_id"`
		StyleID   int64  `json:"style_id"`
		BodyZone  string `json:"body_zone"`
		PromoCode string `json:"promo_code"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.StyleID == 0 {
		writeError(w, http.StatusBadRequest, "style_id is required")
		return
	}
	if strings.TrimSpace(body.BodyZone) == "" {
		writeError(w, http.StatusBadRequest, "body_zone is required")
		return
	}

	breakdown, err := s.pricing.Calculate(r.Context(), service.CalcRequest{
		TgID:      body.TgID,
		StyleID:   body.StyleID,
		BodyZone:  strings.TrimSpace(body.BodyZone),
		PromoCode: body.PromoCode,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
