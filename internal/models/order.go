package models

import "time"

// Order описывает подтверждённую запись на сеанс. StartAt хранится в UTC и
// уникален на уровне схемы: именно это не даёт забронировать один слот дважды.
type Order struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TattooID  *int64    `json:"tattoo_id,omitempty"`
	Sessions  *int64    `json:"sessions,omitempty"`
	Price     *int64    `json:"price,omitempty"`
	StartAt   time.Time `json:"start_at"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderWithUser объединяет запись с ником клиента, для экспорта и сводок.
type OrderWithUser struct {
	Order
	TgNickname string
}
