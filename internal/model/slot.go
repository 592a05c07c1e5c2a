package model

import "time"

type SlotStatus string

const (
	SlotStatusActive  SlotStatus = "active"
	SlotStatusBlocked SlotStatus = "blocked"
)

// Slot окно времени консультанта, доступное для записи.
// Занятость не хранится отдельным флагом: слот занят, пока на него
// ссылается заявка в нетерминальном статусе (pending/approved).
type Slot struct {
	ID        int64      `json:"id"`
	AdvisorID int64      `json:"advisor_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Recurring bool       `json:"recurring"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`

	// Дополнительные поля для удобства (не из БД)
	Advisor     *User        `json:"advisor,omitempty"`
	Appointment *Appointment `json:"appointment,omitempty"` // Активная заявка, если есть
}
