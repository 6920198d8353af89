package models

// BookingDraft хранит незавершённую анкету записи одного чата.
// Answers хранит ответы по ключам шагов; значением может быть false или nil,
// отвеченность определяется наличием ключа, а не истинностью значения.
type BookingDraft struct {
	ChatID  int64          `json:"chat_id"`
	Answers map[string]any `json:"answers"`

	// Служебные поля двухсообщенного UI и идемпотентного подтверждения.
	SummaryMessageID  int   `json:"summary_message_id,omitempty"`
	QuestionMessageID int   `json:"question_message_id,omitempty"`
	ConfirmInFlight   bool  `json:"confirm_in_flight,omitempty"`
	OrderID           int64 `json:"order_id,omitempty"`
}

func NewBookingDraft(chatID int64) *BookingDraft {
	return &BookingDraft{
		ChatID:  chatID,
		Answers: make(map[string]any),
	}
}

// Answered сообщает, отвечено ли поле. Важно: проверяется присутствие ключа.
func (d *BookingDraft) Answered(field string) bool {
	if d == nil || d.Answers == nil {
		return false
	}
	_, ok := d.Answers[field]
	return ok
}

func (d *BookingDraft) GetString(field string) string {
	if d == nil || d.Answers == nil {
		return ""
	}
	if s, ok := d.Answers[field].(string); ok {
		return s
	}
	return ""
}

func (d *BookingDraft) GetBool(field string) (bool, bool) {
	if d == nil || d.Answers == nil {
		return false, false
	}
	v, ok := d.Answers[field].(bool)
	return v, ok
}

// ClearAnswers сбрасывает ответы, сохраняя служебные идентификаторы сообщений.
func (d *BookingDraft) ClearAnswers() {
	d.Answers = make(map[string]any)
	d.ConfirmInFlight = false
	d.OrderID = 0
}
