package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventReservationCreated = "reservation_created"
	EventReservationRetried = "reservation_confirm_retried"
	EventDayOffToggled      = "day_off_toggled"
	EventSlotBlockToggled   = "slot_block_toggled"
)

// ReservationEventPayload несет минимальный снимок записи для подписчиков
type ReservationEventPayload struct {
	OrderID int64     `json:"order_id"`
	TgID    int64     `json:"tg_id"`
	Date    string    `json:"date"`
	Slot    string    `json:"slot"`
	StartAt time.Time `json:"start_at"`
}

// ScheduleExceptionPayload несет результат переключения исключения расписания
type ScheduleExceptionPayload struct {
	Date    string `json:"date"`
	Slot    string `json:"slot,omitempty"`
	Enabled bool   `json:"enabled"`
	AdminID int64  `json:"admin_id"`
}

// Event описывает легковесное доменное событие
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler реагирует на событие
type EventHandler func(event *Event) error

// EventBus реализует внутрипроцессный pub/sub
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus создает пустую шину событий
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe регистрирует обработчик для типа события
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish уведомляет подписчиков события
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	// Обработчики выполняются синхронно; конкурентность остается за вызывающим
	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON сериализует payload и публикует событие
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
