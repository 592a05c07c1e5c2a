package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"   // Ожидает решения консультанта
	AppointmentStatusApproved  AppointmentStatus = "approved"  // Подтверждена
	AppointmentStatusDeclined  AppointmentStatus = "declined"  // Отклонена консультантом
	AppointmentStatusCompleted AppointmentStatus = "completed" // Встреча состоялась
	AppointmentStatusNoShow    AppointmentStatus = "no_show"   // Студент не пришёл
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // Отменена
)

// validTransitions перечисляет все допустимые переходы статусов.
// declined, completed, no_show и cancelled терминальны — исходящих рёбер нет.
var validTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:  {AppointmentStatusApproved, AppointmentStatusDeclined, AppointmentStatusCancelled},
	AppointmentStatusApproved: {AppointmentStatusCompleted, AppointmentStatusNoShow, AppointmentStatusCancelled},
}

// CanTransition проверяет допустим ли переход from → to
func CanTransition(from, to AppointmentStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal проверяет является ли статус терминальным
func IsTerminal(s AppointmentStatus) bool {
	return len(validTransitions[s]) == 0
}

// Releases сообщает освобождает ли переход в данный статус слот.
// approved и completed оставляют слот занятым, все остальные выходы
// из pending/approved возвращают слот в оборот.
func Releases(to AppointmentStatus) bool {
	switch to {
	case AppointmentStatusDeclined, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	ID        int64             `json:"id"`
	Token     string            `json:"token"` // Уникальный человекочитаемый номер заявки
	StudentID int64             `json:"student_id"`
	SlotID    int64             `json:"slot_id"`
	Purpose   string            `json:"purpose"`
	Status    AppointmentStatus `json:"status"`
	Note      *string           `json:"note,omitempty"` // Пометка консультанта при завершении
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Slot    *Slot `json:"slot,omitempty"`
	Student *User `json:"student,omitempty"`
	Advisor *User `json:"advisor,omitempty"`
}
