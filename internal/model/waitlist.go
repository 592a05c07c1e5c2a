package model

import "time"

// WaitlistEntry запись в очереди ожидания занятого слота.
// Уникальна по паре (slot_id, student_id), порядок строго FIFO по created_at.
type WaitlistEntry struct {
	ID        int64     `json:"id"`
	SlotID    int64     `json:"slot_id"`
	StudentID int64     `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`

	// Дополнительные поля для удобства (не из БД)
	Slot    *Slot `json:"slot,omitempty"`
	Student *User `json:"student,omitempty"`
}
