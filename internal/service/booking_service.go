package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"igla/internal/availability"
	"igla/internal/booking"
	"igla/internal/database"
	"igla/internal/domain"
	"igla/internal/events"
	"igla/internal/metrics"
	"igla/internal/models"
	"igla/internal/schedule"

	"github.com/rs/zerolog"
)

// BookingService ведёт анкету записи от первого ответа до созданной брони.
type BookingService struct {
	repo   domain.Repository
	drafts *DraftService
	engine *availability.Engine
	sched  *schedule.Schedule
	bus    domain.EventPublisher
	logger *zerolog.Logger
}

func NewBookingService(
	repo domain.Repository,
	drafts *DraftService,
	engine *availability.Engine,
	sched *schedule.Schedule,
	bus domain.EventPublisher,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:   repo,
		drafts: drafts,
		engine: engine,
		sched:  sched,
		bus:    bus,
		logger: logger,
	}
}

// SetAnswer валидирует и записывает ответ на шаг анкеты. Смена даты
// сбрасывает выбранное время внутри booking.Apply.
func (s *BookingService) SetAnswer(ctx context.Context, chatID int64, field, value string) (*models.BookingDraft, error) {
	draft, err := s.drafts.GetOrCreate(ctx, chatID)
	if err != nil {
		return nil, err
	}

	parsed, err := booking.ParseValue(s.sched, field, value, s.sched.Today())
	if err != nil {
		return draft, err
	}

	// Время проверяем против живой доступности: сетка могла устареть,
	// пока пользователь смотрел на клавиатуру.
	if field == booking.StepCalendarTime {
		date := draft.GetString(booking.StepCalendarDate)
		ok, availErr := s.engine.IsSlotAvailable(ctx, date, value)
		if availErr != nil {
			return draft, availErr
		}
		if !ok {
			return draft, &booking.ValidationError{Field: field, Message: "слот уже занят"}
		}
	}

	booking.Apply(draft, field, parsed)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// SkipAnswer помечает необязательный шаг пропущенным.
func (s *BookingService) SkipAnswer(ctx context.Context, chatID int64, field string) (*models.BookingDraft, error) {
	draft, err := s.drafts.GetOrCreate(ctx, chatID)
	if err != nil {
		return nil, err
	}
	booking.Skip(draft, field)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// ConfirmDraft превращает заполненную анкету в бронь. Операция идемпотентна:
// за уже подтверждённый черновик возвращается прежний номер брони, а флаг
// in-flight не даёт параллельному подтверждению создать дубль.
func (s *BookingService) ConfirmDraft(ctx context.Context, chatID, tgID int64, nickname string) (int64, error) {
	draft, err := s.drafts.GetOrCreate(ctx, chatID)
	if err != nil {
		return 0, err
	}

	if draft.OrderID != 0 {
		return draft.OrderID, nil
	}
	if draft.ConfirmInFlight {
		return 0, database.ErrConfirmInFlight
	}
	if !booking.ReadyToConfirm(draft) {
		return 0, &booking.ValidationError{Field: booking.StepConfirm, Message: "анкета заполнена не до конца"}
	}

	draft.ConfirmInFlight = true
	if err := s.drafts.Save(ctx, draft); err != nil {
		return 0, err
	}
	defer func() {
		draft.ConfirmInFlight = false
		if saveErr := s.drafts.Save(ctx, draft); saveErr != nil {
			s.logger.Error().Err(saveErr).Int64("chat_id", chatID).Msg("failed to clear confirm flag")
		}
	}()

	date := draft.GetString(booking.StepCalendarDate)
	slot := draft.GetString(booking.StepCalendarTime)
	startAt, err := s.sched.ComposeStartAt(date, slot)
	if err != nil {
		return 0, err
	}

	orderID, err := s.repo.CreateReservation(ctx, tgID, nickname, startAt)
	if err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncSlotConflict()
			// Слот перехватили между выбором и подтверждением:
			// возвращаем пользователя на выбор времени.
			delete(draft.Answers, booking.StepCalendarTime)
			s.publishReservationEvent(events.EventReservationRetried, 0, tgID, date, slot, startAt)
			return 0, err
		}
		return 0, fmt.Errorf("failed to create reservation: %w", err)
	}

	draft.OrderID = orderID
	metrics.IncReservationCreated()
	s.publishReservationEvent(events.EventReservationCreated, orderID, tgID, date, slot, startAt)
	s.logger.Info().
		Int64("order_id", orderID).
		Int64("tg_id", tgID).
		Str("date", date).
		Str("slot", slot).
		Msg("reservation created")
	return orderID, nil
}

func (s *BookingService) publishReservationEvent(eventType string, orderID, tgID int64, date, slot string, startAt time.Time) {
	if s.bus == nil {
		return
	}
	payload := events.ReservationEventPayload{
		OrderID: orderID,
		TgID:    tgID,
		Date:    date,
		Slot:    slot,
		StartAt: startAt,
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

// AvailableSlots отдаёт свободные слоты даты для клавиатуры времени.
func (s *BookingService) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	return s.engine.AvailableSlots(ctx, date)
}

// DisabledDates отдаёт даты, которые календарь рисует неактивными.
func (s *BookingService) DisabledDates(ctx context.Context) (map[string]bool, error) {
	return s.engine.DisabledDates(ctx, s.sched.Today())
}

// ToggleDayOff переключает выходной и сообщает, выходной ли день теперь.
func (s *BookingService) ToggleDayOff(ctx context.Context, adminID int64, date, reason string) (bool, error) {
	if _, _, err := s.sched.DayBoundsUTC(date); err != nil {
		return false, &booking.ValidationError{Field: "date", Message: "ожидается дата в формате ГГГГ-ММ-ДД"}
	}
	nowOff, err := s.repo.ToggleDayOff(ctx, date, reason)
	if err != nil {
		return false, err
	}
	s.publishExceptionEvent(events.EventDayOffToggled, adminID, date, "", nowOff)
	return nowOff, nil
}

// ToggleBlockedSlot переключает блокировку конкретного слота.
func (s *BookingService) ToggleBlockedSlot(ctx context.Context, adminID int64, date, slot, reason string) (bool, error) {
	if !s.sched.InGrid(slot) {
		return false, &booking.ValidationError{Field: "slot", Message: "время вне рабочей сетки"}
	}
	if _, _, err := s.sched.DayBoundsUTC(date); err != nil {
		return false, &booking.ValidationError{Field: "date", Message: "ожидается дата в формате ГГГГ-ММ-ДД"}
	}
	nowBlocked, err := s.repo.ToggleBlockedSlot(ctx, date, slot, reason)
	if err != nil {
		return false, err
	}
	s.publishExceptionEvent(events.EventSlotBlockToggled, adminID, date, slot, nowBlocked)
	return nowBlocked, nil
}

func (s *BookingService) publishExceptionEvent(eventType string, adminID int64, date, slot string, enabled bool) {
	if s.bus == nil {
		return
	}
	payload := events.ScheduleExceptionPayload{Date: date, Slot: slot, Enabled: enabled, AdminID: adminID}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
