package model

import "time"

// Minute протокол завершённой встречи, виден только консультанту
type Minute struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment_id"`
	AdvisorID     int64     `json:"advisor_id"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
