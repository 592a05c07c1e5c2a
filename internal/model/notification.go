package model

import "time"

type NotificationKind string

const (
	NotificationSlotFreed            NotificationKind = "slot_freed"
	NotificationSlotCancelled        NotificationKind = "slot_cancelled"
	NotificationAppointmentApproved  NotificationKind = "appointment_approved"
	NotificationAppointmentDeclined  NotificationKind = "appointment_declined"
	NotificationAppointmentCancelled NotificationKind = "appointment_cancelled"
	NotificationNotice               NotificationKind = "notice"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification запись transactional outbox: создаётся в той же транзакции,
// что и доменное изменение, доставляется диспетчером асинхронно.
type Notification struct {
	ID          int64              `json:"id"`
	RecipientID int64              `json:"recipient_id"`
	Kind        NotificationKind   `json:"kind"`
	Payload     []byte             `json:"payload"` // JSON
	Status      NotificationStatus `json:"status"`
	Attempts    int                `json:"attempts"`
	CreatedAt   time.Time          `json:"created_at"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
}
