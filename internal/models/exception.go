package models

import "time"

// DayOff помечает целый день нерабочим. Ключом служит сама дата (YYYY-MM-DD).
type DayOff struct {
	Date      string    `json:"date"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockedSlot блокирует один слот (date, time) независимо от записей.
type BlockedSlot struct {
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
