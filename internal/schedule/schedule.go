package schedule

import (
	"fmt"
	"time"

	"igla/internal/models"
)

const (
	DateLayout = "2006-01-02"
	SlotLayout = "15:04"
)

// Policy задаёт горизонт бронирования и сетку слотов одного дня.
type Policy struct {
	DaysAhead        int
	StartHour        int
	EndHourInclusive int
}

func DefaultPolicy() Policy {
	return Policy{
		DaysAhead:        models.DefaultDaysAhead,
		StartHour:        models.DefaultStartHour,
		EndHourInclusive: models.DefaultEndHourInclusive,
	}
}

// Schedule держит единственное место, где живёт конвертация между гражданским
// временем студии и UTC. Всё остальное оперирует строками YYYY-MM-DD / HH:MM
// либо UTC-инстантами.
type Schedule struct {
	policy Policy
	loc    *time.Location
}

func New(policy Policy, timezone string) (*Schedule, error) {
	if policy.DaysAhead <= 0 {
		return nil, fmt.Errorf("schedule: days_ahead must be > 0, got %d", policy.DaysAhead)
	}
	if policy.StartHour < 0 || policy.EndHourInclusive > 23 || policy.StartHour > policy.EndHourInclusive {
		return nil, fmt.Errorf("schedule: invalid hour range [%d, %d]", policy.StartHour, policy.EndHourInclusive)
	}
	if timezone == "" {
		timezone = models.DefaultStudioTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule: load timezone %q: %w", timezone, err)
	}
	return &Schedule{policy: policy, loc: loc}, nil
}

func (s *Schedule) Policy() Policy { return s.policy }

// SlotGrid возвращает канонический список слотов дня в порядке сетки.
func (s *Schedule) SlotGrid() []string {
	grid := make([]string, 0, s.policy.EndHourInclusive-s.policy.StartHour+1)
	for hour := s.policy.StartHour; hour <= s.policy.EndHourInclusive; hour++ {
		grid = append(grid, fmt.Sprintf("%02d:00", hour))
	}
	return grid
}

// InGrid проверяет принадлежность метки слота сетке политики.
func (s *Schedule) InGrid(slot string) bool {
	for _, g := range s.SlotGrid() {
		if g == slot {
			return true
		}
	}
	return false
}

// Today возвращает сегодняшнюю дату по календарю студии, не сервера.
func (s *Schedule) Today() string {
	return time.Now().In(s.loc).Format(DateLayout)
}

// IsDateAvailable: today <= date <= today + daysAhead, обе даты строки
// YYYY-MM-DD в календаре студии.
func (s *Schedule) IsDateAvailable(date, today string) bool {
	chosen, err := time.ParseInLocation(DateLayout, date, s.loc)
	if err != nil {
		return false
	}
	min, err := time.ParseInLocation(DateLayout, today, s.loc)
	if err != nil {
		return false
	}
	max := min.AddDate(0, 0, s.policy.DaysAhead)
	return !chosen.Before(min) && !chosen.After(max)
}

// ComposeStartAt собирает UTC-инстант из локальных даты и слота.
func (s *Schedule) ComposeStartAt(date, slot string) (time.Time, error) {
	local, err := time.ParseInLocation(DateLayout+" "+SlotLayout, date+" "+slot, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: parse %q %q: %w", date, slot, err)
	}
	return local.UTC(), nil
}

// DayBoundsUTC возвращает [полночь дня, полночь следующего дня) в UTC.
func (s *Schedule) DayBoundsUTC(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("schedule: parse date %q: %w", date, err)
	}
	return start.UTC(), start.AddDate(0, 0, 1).UTC(), nil
}

// LocalDate возвращает дату UTC-инстанта в календаре студии.
func (s *Schedule) LocalDate(t time.Time) string {
	return t.In(s.loc).Format(DateLayout)
}

// LocalSlot возвращает метку времени UTC-инстанта в календаре студии.
func (s *Schedule) LocalSlot(t time.Time) string {
	return t.In(s.loc).Format(SlotLayout)
}

// AddDays сдвигает дату на n дней, оставаясь в календаре студии.
func (s *Schedule) AddDays(date string, n int) (string, error) {
	d, err := time.ParseInLocation(DateLayout, date, s.loc)
	if err != nil {
		return "", fmt.Errorf("schedule: parse date %q: %w", date, err)
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}
