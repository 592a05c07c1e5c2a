package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/5h444n/cams/internal/model"
)

// Интерфейсы хранилищ объявлены на стороне потребителя;
// их реализуют репозитории из internal/repository.

// Transactor выполняет fn в одной транзакции хранилища
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	ListActiveIDs(ctx context.Context) ([]int64, error)
	SetDeactivated(ctx context.Context, id int64, deactivated bool) error
}

type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error)
	ListOpen(ctx context.Context, advisorID *int64, from time.Time) ([]*model.Slot, error)
	ListByAdvisor(ctx context.Context, advisorID int64, from, to time.Time) ([]*model.Slot, error)
	SetStatus(ctx context.Context, id int64, status model.SlotStatus) error
	Delete(ctx context.Context, id int64) error
	ExistsAt(ctx context.Context, advisorID int64, startTime time.Time) (bool, error)
}

type AppointmentStore interface {
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	GetActiveBySlotID(ctx context.Context, slotID int64) (*model.Appointment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Appointment, error)
	ListByAdvisor(ctx context.Context, advisorID int64) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) error
	SetNote(ctx context.Context, id int64, note string) error
	ListStalePending(ctx context.Context, before time.Time) ([]*model.Appointment, error)
	ListOverdueApproved(ctx context.Context, startedBefore time.Time) ([]*model.Appointment, error)
}

type WaitlistStore interface {
	Add(ctx context.Context, entry *model.WaitlistEntry) error
	FirstBySlotForUpdate(ctx context.Context, slotID int64) (*model.WaitlistEntry, error)
	Delete(ctx context.Context, id int64) error
	DeleteBySlotStudent(ctx context.Context, slotID, studentID int64) error
	ListBySlot(ctx context.Context, slotID int64) ([]*model.WaitlistEntry, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.WaitlistEntry, error)
}

type MinuteStore interface {
	Upsert(ctx context.Context, minute *model.Minute) error
	GetByAppointmentID(ctx context.Context, appointmentID int64) (*model.Minute, error)
	ListByAdvisor(ctx context.Context, advisorID int64) ([]*model.Minute, error)
}

type NoticeStore interface {
	Create(ctx context.Context, notice *model.Notice) error
	List(ctx context.Context) ([]*model.Notice, error)
}

// Outbox очередь исходящих уведомлений (transactional outbox)
type Outbox interface {
	Enqueue(ctx context.Context, n *model.Notification) error
}

// SlotFreedHook вызывается после освобождения слота.
// Реализуется WaitlistService; вызов синхронный и явный,
// асинхронна только доставка уведомления.
type SlotFreedHook interface {
	OnSlotFreed(ctx context.Context, slotID int64) error
}

// enqueueNotification сериализует payload и кладёт уведомление в outbox
func enqueueNotification(ctx context.Context, outbox Outbox, recipientID int64, kind model.NotificationKind, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	return outbox.Enqueue(ctx, &model.Notification{
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     body,
	})
}
