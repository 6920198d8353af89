package availability

import (
	"context"
	"fmt"

	"igla/internal/domain"
	"igla/internal/schedule"

	"github.com/rs/zerolog"
)

// Engine вычисляет доступность всегда заново из трёх независимых источников:
// политика расписания, исключения и существующие записи. Горизонт короткий,
// блокировки редки: пересчёт на чтении проще любой инвалидации кэша и даёт
// read-your-writes для админских тумблеров.
type Engine struct {
	sched  *schedule.Schedule
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewEngine(sched *schedule.Schedule, repo domain.Repository, logger *zerolog.Logger) *Engine {
	return &Engine{sched: sched, repo: repo, logger: logger}
}

func (e *Engine) Schedule() *schedule.Schedule { return e.sched }

// AvailableSlots возвращает открытые слоты дня в порядке сетки:
// grid − blocked − booked; для выходного дня пустой список.
func (e *Engine) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	dayOff, err := e.repo.IsDayOff(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("availability: check day off: %w", err)
	}
	if dayOff {
		return []string{}, nil
	}

	blocked, err := e.repo.ListBlockedSlots(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("availability: list blocked slots: %w", err)
	}

	booked, err := e.bookedSlots(ctx, date)
	if err != nil {
		return nil, err
	}

	return subtract(e.sched.SlotGrid(), blocked, booked), nil
}

// DisabledDates возвращает недоступные даты горизонта [today, today+daysAhead]:
// выходные плюс дни, где после блокировок и записей слотов не осталось.
// Логика исключения та же, что в AvailableSlots, иначе календарь покажет
// выбираемый, но фактически полный день.
func (e *Engine) DisabledDates(ctx context.Context, today string) (map[string]bool, error) {
	horizon := e.sched.Policy().DaysAhead
	end, err := e.sched.AddDays(today, horizon)
	if err != nil {
		return nil, fmt.Errorf("availability: horizon end: %w", err)
	}

	dayOffs, err := e.repo.ListDayOffDates(ctx, today, end)
	if err != nil {
		return nil, fmt.Errorf("availability: list day offs: %w", err)
	}

	blockedByDate, err := e.repo.ListBlockedSlotsInRange(ctx, today, end)
	if err != nil {
		return nil, fmt.Errorf("availability: list blocked slots: %w", err)
	}

	startUTC, _, err := e.sched.DayBoundsUTC(today)
	if err != nil {
		return nil, err
	}
	_, endUTC, err := e.sched.DayBoundsUTC(end)
	if err != nil {
		return nil, err
	}
	startAts, err := e.repo.ListOrderStartAtBetween(ctx, startUTC, endUTC)
	if err != nil {
		return nil, fmt.Errorf("availability: list bookings: %w", err)
	}
	bookedByDate := make(map[string]map[string]bool)
	for _, at := range startAts {
		d := e.sched.LocalDate(at)
		if bookedByDate[d] == nil {
			bookedByDate[d] = make(map[string]bool)
		}
		bookedByDate[d][e.sched.LocalSlot(at)] = true
	}

	grid := e.sched.SlotGrid()
	disabled := make(map[string]bool)
	date := today
	for i := 0; i <= horizon; i++ {
		if dayOffs[date] {
			disabled[date] = true
		} else if len(subtract(grid, blockedByDate[date], bookedByDate[date])) == 0 {
			disabled[date] = true
		}
		date, err = e.sched.AddDays(date, 1)
		if err != nil {
			return nil, err
		}
	}
	return disabled, nil
}

// IsSlotAvailable: метка вне сетки политики отклоняется сразу, защита от
// подделанного ввода; дальше решает AvailableSlots.
func (e *Engine) IsSlotAvailable(ctx context.Context, date, slot string) (bool, error) {
	if !e.sched.InGrid(slot) {
		return false, nil
	}
	slots, err := e.AvailableSlots(ctx, date)
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s == slot {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) bookedSlots(ctx context.Context, date string) (map[string]bool, error) {
	startUTC, endUTC, err := e.sched.DayBoundsUTC(date)
	if err != nil {
		return nil, err
	}
	startAts, err := e.repo.ListOrderStartAtBetween(ctx, startUTC, endUTC)
	if err != nil {
		return nil, fmt.Errorf("availability: list bookings: %w", err)
	}
	booked := make(map[string]bool, len(startAts))
	for _, at := range startAts {
		booked[e.sched.LocalSlot(at)] = true
	}
	return booked, nil
}

// subtract сохраняет порядок сетки.
func subtract(grid []string, excluded ...map[string]bool) []string {
	out := make([]string, 0, len(grid))
next:
	for _, slot := range grid {
		for _, set := range excluded {
			if set[slot] {
				continue next
			}
		}
		out = append(out, slot)
	}
	return out
}
