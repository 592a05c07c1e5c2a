package service

import (
	"context"
	"testing"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type advisorFixture struct {
	users    *fakeUserStore
	slots    *fakeSlotStore
	appts    *fakeAppointmentStore
	minutes  *fakeMinuteStore
	waitlist *fakeWaitlistStore
	outbox   *fakeOutbox
	svc      *AdvisorService
}

func newAdvisorFixture() *advisorFixture {
	users := newFakeUserStore()
	slots := newFakeSlotStore()
	appts := newFakeAppointmentStore(slots)
	minutes := newFakeMinuteStore()
	waitlist := newFakeWaitlistStore()
	outbox := newFakeOutbox()

	waitlistSvc := NewWaitlistService(fakeTx{}, waitlist, slots, appts, users, outbox, zap.NewNop())
	waitlistSvc.now = func() time.Time { return testNow }

	svc := NewAdvisorService(fakeTx{}, slots, appts, minutes, waitlistSvc, outbox, zap.NewNop())
	svc.now = func() time.Time { return testNow }

	return &advisorFixture{users: users, slots: slots, appts: appts, minutes: minutes, waitlist: waitlist, outbox: outbox, svc: svc}
}

func TestCreateSlot(t *testing.T) {
	f := newAdvisorFixture()
	start := testNow.Add(24 * time.Hour)

	slot, err := f.svc.CreateSlot(context.Background(), 10, start, start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusActive, slot.Status)
	assert.False(t, slot.Recurring)

	// То же время повторно — конфликт
	_, err = f.svc.CreateSlot(context.Background(), 10, start, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	// Прошлое и вывернутые границы
	_, err = f.svc.CreateSlot(context.Background(), 10, testNow.Add(-time.Hour), testNow)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateSlot(context.Background(), 10, start.Add(time.Hour), start)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateRecurringSlots(t *testing.T) {
	f := newAdvisorFixture()
	start := testNow.Add(24 * time.Hour)

	// Вторая неделя уже занята одиночным слотом — пропускается
	_, err := f.svc.CreateSlot(context.Background(), 10, start.Add(7*24*time.Hour), start.Add(7*24*time.Hour+time.Hour))
	require.NoError(t, err)

	slots, err := f.svc.CreateRecurringSlots(context.Background(), 10, start, start.Add(30*time.Minute), 4)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	for _, slot := range slots {
		assert.True(t, slot.Recurring)
	}

	_, err = f.svc.CreateRecurringSlots(context.Background(), 10, start, start.Add(30*time.Minute), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateRecurringSlots(context.Background(), 10, start, start.Add(30*time.Minute), 53)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBlockSlot(t *testing.T) {
	f := newAdvisorFixture()
	start := testNow.Add(24 * time.Hour)

	slot, err := f.svc.CreateSlot(context.Background(), 10, start, start.Add(time.Hour))
	require.NoError(t, err)

	// Чужой слот трогать нельзя
	err = f.svc.BlockSlot(context.Background(), slot.ID, Actor{ID: 77, Role: model.RoleAdvisor})
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.svc.BlockSlot(context.Background(), slot.ID, Actor{ID: 10, Role: model.RoleAdvisor}))
	assert.Equal(t, model.SlotStatusBlocked, slot.Status)

	require.NoError(t, f.svc.UnblockSlot(context.Background(), slot.ID, Actor{ID: 10, Role: model.RoleAdvisor}))
	assert.Equal(t, model.SlotStatusActive, slot.Status)
}

// Слот с активной заявкой не блокируется — сначала решить судьбу заявки
func TestBlockOccupiedSlot(t *testing.T) {
	f := newAdvisorFixture()
	start := testNow.Add(24 * time.Hour)

	slot, err := f.svc.CreateSlot(context.Background(), 10, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.appts.Create(context.Background(), &model.Appointment{
		Token: "CNS-BLOCK", StudentID: 1, SlotID: slot.ID, Purpose: "p", Status: model.AppointmentStatusApproved,
	}))

	err = f.svc.BlockSlot(context.Background(), slot.ID, Actor{ID: 10, Role: model.RoleAdvisor})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, model.SlotStatusActive, slot.Status)
}

func TestDeleteSlot(t *testing.T) {
	f := newAdvisorFixture()
	start := testNow.Add(24 * time.Hour)

	slot, err := f.svc.CreateSlot(context.Background(), 10, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.appts.Create(context.Background(), &model.Appointment{
		Token: "CNS-DEL", StudentID: 1, SlotID: slot.ID, Purpose: "p", Status: model.AppointmentStatusApproved,
	}))

	f.users.users[2] = &model.User{ID: 2, Name: "waiting", Role: model.RoleStudent}
	require.NoError(t, f.waitlist.Add(context.Background(), &model.WaitlistEntry{SlotID: slot.ID, StudentID: 2}))

	require.NoError(t, f.svc.DeleteSlot(context.Background(), slot.ID, Actor{ID: 10, Role: model.RoleAdvisor}))

	stored, _ := f.slots.GetByID(context.Background(), slot.ID)
	assert.Nil(t, stored)

	// Уведомлены и держатель заявки, и очередь
	notifications := f.outbox.byKind(model.NotificationSlotCancelled)
	require.Len(t, notifications, 2)
	assert.Equal(t, int64(1), notifications[0].RecipientID)
	assert.Equal(t, int64(2), notifications[1].RecipientID)
}

func TestListSlotsAttachesAppointments(t *testing.T) {
	f := newAdvisorFixture()
	start := testNow.Add(24 * time.Hour)

	taken, err := f.svc.CreateSlot(context.Background(), 10, start, start.Add(time.Hour))
	require.NoError(t, err)
	_, err = f.svc.CreateSlot(context.Background(), 10, start.Add(2*time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.appts.Create(context.Background(), &model.Appointment{
		Token: "CNS-LIST", StudentID: 1, SlotID: taken.ID, Purpose: "p", Status: model.AppointmentStatusPending,
	}))

	slots, err := f.svc.ListSlots(context.Background(), 10, testNow, testNow.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.NotNil(t, slots[0].Appointment)
	assert.Nil(t, slots[1].Appointment)
}

func TestSaveMinute(t *testing.T) {
	f := newAdvisorFixture()
	start := testNow.Add(24 * time.Hour)

	slot, err := f.svc.CreateSlot(context.Background(), 10, start, start.Add(time.Hour))
	require.NoError(t, err)
	appointment := &model.Appointment{
		Token: "CNS-MIN", StudentID: 1, SlotID: slot.ID, Purpose: "p", Status: model.AppointmentStatusCompleted,
	}
	f.appts.nextID++
	appointment.ID = f.appts.nextID
	f.appts.appts[appointment.ID] = appointment

	minute, err := f.svc.SaveMinute(context.Background(), appointment.ID, Actor{ID: 10, Role: model.RoleAdvisor}, "first draft")
	require.NoError(t, err)

	// Повторное сохранение обновляет ту же запись
	updated, err := f.svc.SaveMinute(context.Background(), appointment.ID, Actor{ID: 10, Role: model.RoleAdvisor}, "final")
	require.NoError(t, err)
	assert.Equal(t, minute.ID, updated.ID)

	stored, _ := f.minutes.GetByAppointmentID(context.Background(), appointment.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "final", stored.Body)

	// Чужому консультанту протокол недоступен
	_, err = f.svc.SaveMinute(context.Background(), appointment.ID, Actor{ID: 77, Role: model.RoleAdvisor}, "x")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.GetMinute(context.Background(), appointment.ID, Actor{ID: 77, Role: model.RoleAdvisor})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.GetMinute(context.Background(), appointment.ID, Actor{ID: 10, Role: model.RoleAdvisor})
	require.NoError(t, err)
	assert.Equal(t, "final", got.Body)
}

func TestSaveMinuteNotCompleted(t *testing.T) {
	f := newAdvisorFixture()
	start := testNow.Add(24 * time.Hour)

	slot, err := f.svc.CreateSlot(context.Background(), 10, start, start.Add(time.Hour))
	require.NoError(t, err)
	pending := &model.Appointment{
		Token: "CNS-PEND", StudentID: 1, SlotID: slot.ID, Purpose: "p", Status: model.AppointmentStatusPending,
	}
	f.appts.nextID++
	pending.ID = f.appts.nextID
	f.appts.appts[pending.ID] = pending

	_, err = f.svc.SaveMinute(context.Background(), pending.ID, Actor{ID: 10, Role: model.RoleAdvisor}, "too early")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
