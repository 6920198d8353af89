package booking

import (
	"fmt"
	"strings"
	"time"

	"igla/internal/models"
	"igla/internal/schedule"
)

// Шаги анкеты в строгом порядке. Шаг считается пройденным, когда его ключ
// присутствует в ответах черновика; значение может быть и false, и nil.
const (
	StepWantCustomSketch = "want_custom_sketch"
	StepBodyPart         = "body_part"
	StepCalendarDate     = "calendar_date"
	StepCalendarTime     = "calendar_time"
	StepPromoCode        = "promo_code"
	StepConfirm          = "confirm"
)

type Field struct {
	Key   string
	Label string
}

// Fields задает единственный источник порядка шагов; анкета это данные,
// а не ветвящийся код.
var Fields = []Field{
	{StepWantCustomSketch, "Индивидуальный эскиз"},
	{StepBodyPart, "Часть тела"},
	{StepCalendarDate, "Дата"},
	{StepCalendarTime, "Время"},
	{StepPromoCode, "Промокод"},
}

// BodyPartOptions перечисляет допустимые зоны; ключ хранится, подпись показывается.
var BodyPartOptions = map[string]string{
	"arm":   "Рука",
	"leg":   "Нога",
	"back":  "Спина",
	"chest": "Грудь",
	"neck":  "Шея",
	"other": "Другое",
}

// bodyPartOrder фиксирует порядок кнопок: карта его не гарантирует.
var bodyPartOrder = []string{"arm", "leg", "back", "chest", "neck", "other"}

func BodyPartKeys() []string {
	return bodyPartOrder
}

// NextMissingStep возвращает первый неотвеченный шаг либо confirm.
func NextMissingStep(draft *models.BookingDraft) string {
	for _, field := range Fields {
		if !draft.Answered(field.Key) {
			return field.Key
		}
	}
	return StepConfirm
}

// ValidationError означает отказ по конкретному полю; шаг переспрашивается,
// молчаливого продвижения не бывает.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseValue валидирует и приводит сырое значение шага.
func ParseValue(sched *schedule.Schedule, field, value, today string) (any, error) {
	switch field {
	case StepWantCustomSketch:
		switch value {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
		return nil, &ValidationError{Field: field, Message: "ожидается «да» или «нет»"}

	case StepBodyPart:
		if _, ok := BodyPartOptions[value]; !ok {
			return nil, &ValidationError{Field: field, Message: "неизвестная часть тела"}
		}
		return value, nil

	case StepCalendarDate:
		if _, err := time.Parse(schedule.DateLayout, value); err != nil {
			return nil, &ValidationError{Field: field, Message: "неверный формат даты"}
		}
		if !sched.IsDateAvailable(value, today) {
			return nil, &ValidationError{Field: field, Message: "дата вне доступного периода"}
		}
		return value, nil

	case StepCalendarTime:
		if !sched.InGrid(value) {
			return nil, &ValidationError{Field: field, Message: "время вне сетки расписания"}
		}
		return value, nil

	case StepPromoCode:
		code := strings.TrimSpace(value)
		if code == "" {
			return nil, &ValidationError{Field: field, Message: "пустой промокод"}
		}
		return code, nil
	}
	return nil, &ValidationError{Field: field, Message: "неизвестное поле"}
}

// Apply записывает ответ. Смена даты сбрасывает выбранное время:
// доступность слотов привязана к дате.
func Apply(draft *models.BookingDraft, field string, value any) {
	if draft.Answers == nil {
		draft.Answers = make(map[string]any)
	}
	if field == StepCalendarDate {
		prev, had := draft.Answers[StepCalendarDate]
		if had && prev != value {
			delete(draft.Answers, StepCalendarTime)
		}
	}
	draft.Answers[field] = value
}

// Skip помечает шаг пропущенным: ключ присутствует со значением nil.
func Skip(draft *models.BookingDraft, field string) {
	if draft.Answers == nil {
		draft.Answers = make(map[string]any)
	}
	draft.Answers[field] = nil
}

// ReadyToConfirm: подтверждать можно только с выбранными датой и временем.
func ReadyToConfirm(draft *models.BookingDraft) bool {
	return draft.Answered(StepCalendarDate) && draft.Answered(StepCalendarTime) &&
		draft.GetString(StepCalendarDate) != "" && draft.GetString(StepCalendarTime) != ""
}

// FormatValue отображает ответ для сводки.
func FormatValue(field string, value any) string {
	if value == nil {
		return "Пропущено"
	}
	switch field {
	case StepWantCustomSketch:
		if b, ok := value.(bool); ok {
			if b {
				return "Да"
			}
			return "Нет"
		}
	case StepBodyPart:
		if label, ok := BodyPartOptions[fmt.Sprint(value)]; ok {
			return label
		}
	case StepCalendarDate:
		if d, err := time.Parse(schedule.DateLayout, fmt.Sprint(value)); err == nil {
			return d.Format("02.01.2006")
		}
	}
	return fmt.Sprint(value)
}

// RenderSummary собирает текст сводки анкеты.
func RenderSummary(draft *models.BookingDraft) string {
	lines := []string{"Сводка заказа", ""}
	for _, field := range Fields {
		rendered := "—"
		if draft.Answered(field.Key) {
			rendered = FormatValue(field.Key, draft.Answers[field.Key])
		}
		lines = append(lines, fmt.Sprintf("%s: %s", field.Label, rendered))
	}
	return strings.Join(lines, "\n")
}

// QuestionText возвращает текст вопроса шага; клавиатуры собирает слой бота.
func QuestionText(step string) string {
	switch step {
	case StepWantCustomSketch:
		return "Нужен индивидуальный эскиз?"
	case StepBodyPart:
		return "Выберите часть тела:"
	case StepCalendarDate:
		return "Выберите дату:"
	case StepCalendarTime:
		return "Выберите время (МСК):"
	case StepPromoCode:
		return "Введите промокод или нажмите «Пропустить»."
	case StepConfirm:
		return "Проверьте сводку и подтвердите запись."
	}
	return ""
}
