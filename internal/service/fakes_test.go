package service

import (
	"context"
	"sort"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository"
)

// Фейки хранилищ в памяти. Поведение повторяет контракт репозиториев:
// отсутствие записи — (nil, nil), конфликты — ошибки repository.

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserStore struct {
	users map[int64]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*model.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user *model.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	var maxID int64
	for id := range s.users {
		if id > maxID {
			maxID = id
		}
	}
	user.ID = maxID + 1
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	return s.users[id], nil
}

func (s *fakeUserStore) List(_ context.Context) ([]*model.User, error) {
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *fakeUserStore) ListActiveIDs(_ context.Context) ([]int64, error) {
	var ids []int64
	for id, u := range s.users {
		if !u.Deactivated {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *fakeUserStore) SetDeactivated(_ context.Context, id int64, deactivated bool) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Deactivated = deactivated
	return nil
}

type fakeSlotStore struct {
	nextID int64
	slots  map[int64]*model.Slot
	appts  *fakeAppointmentStore
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{slots: make(map[int64]*model.Slot)}
}

func (s *fakeSlotStore) Create(_ context.Context, slot *model.Slot) error {
	s.nextID++
	slot.ID = s.nextID
	s.slots[slot.ID] = slot
	return nil
}

func (s *fakeSlotStore) GetByID(_ context.Context, id int64) (*model.Slot, error) {
	return s.slots[id], nil
}

func (s *fakeSlotStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeSlotStore) ListOpen(_ context.Context, advisorID *int64, from time.Time) ([]*model.Slot, error) {
	var out []*model.Slot
	for _, slot := range s.slots {
		if slot.Status != model.SlotStatusActive || !slot.StartTime.After(from) {
			continue
		}
		if advisorID != nil && slot.AdvisorID != *advisorID {
			continue
		}
		if s.appts != nil && s.appts.activeBySlot(slot.ID) != nil {
			continue
		}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *fakeSlotStore) ListByAdvisor(_ context.Context, advisorID int64, from, to time.Time) ([]*model.Slot, error) {
	var out []*model.Slot
	for _, slot := range s.slots {
		if slot.AdvisorID == advisorID && !slot.StartTime.Before(from) && slot.StartTime.Before(to) {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *fakeSlotStore) SetStatus(_ context.Context, id int64, status model.SlotStatus) error {
	slot, ok := s.slots[id]
	if !ok {
		return repository.ErrNotFound
	}
	slot.Status = status
	return nil
}

func (s *fakeSlotStore) Delete(_ context.Context, id int64) error {
	delete(s.slots, id)
	return nil
}

func (s *fakeSlotStore) ExistsAt(_ context.Context, advisorID int64, startTime time.Time) (bool, error) {
	for _, slot := range s.slots {
		if slot.AdvisorID == advisorID && slot.StartTime.Equal(startTime) {
			return true, nil
		}
	}
	return false, nil
}

type fakeAppointmentStore struct {
	nextID int64
	appts  map[int64]*model.Appointment
	slots  *fakeSlotStore

	// Принудительные ошибки UpdateStatus по id заявки
	failUpdate map[int64]error
}

func newFakeAppointmentStore(slots *fakeSlotStore) *fakeAppointmentStore {
	s := &fakeAppointmentStore{
		appts:      make(map[int64]*model.Appointment),
		slots:      slots,
		failUpdate: make(map[int64]error),
	}
	if slots != nil {
		slots.appts = s
	}
	return s
}

func (s *fakeAppointmentStore) activeBySlot(slotID int64) *model.Appointment {
	for _, a := range s.appts {
		if a.SlotID == slotID && !model.IsTerminal(a.Status) {
			return a
		}
	}
	return nil
}

func (s *fakeAppointmentStore) Create(_ context.Context, a *model.Appointment) error {
	for _, existing := range s.appts {
		if existing.Token == a.Token {
			return repository.ErrDuplicate
		}
	}
	if s.activeBySlot(a.SlotID) != nil {
		return repository.ErrDuplicate
	}

	s.nextID++
	a.ID = s.nextID
	s.appts[a.ID] = a
	return nil
}

func (s *fakeAppointmentStore) GetByID(_ context.Context, id int64) (*model.Appointment, error) {
	return s.appts[id], nil
}

func (s *fakeAppointmentStore) GetActiveBySlotID(_ context.Context, slotID int64) (*model.Appointment, error) {
	return s.activeBySlot(slotID), nil
}

func (s *fakeAppointmentStore) ListByStudent(_ context.Context, studentID int64) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range s.appts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeAppointmentStore) ListByAdvisor(_ context.Context, advisorID int64) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range s.appts {
		slot := s.slots.slots[a.SlotID]
		if slot != nil && slot.AdvisorID == advisorID && !model.IsTerminal(a.Status) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeAppointmentStore) UpdateStatus(_ context.Context, id int64, from, to model.AppointmentStatus) error {
	if err, ok := s.failUpdate[id]; ok {
		return err
	}
	a, ok := s.appts[id]
	if !ok || a.Status != from {
		return repository.ErrStatusConflict
	}
	a.Status = to
	return nil
}

func (s *fakeAppointmentStore) SetNote(_ context.Context, id int64, note string) error {
	a, ok := s.appts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Note = &note
	return nil
}

func (s *fakeAppointmentStore) ListStalePending(_ context.Context, before time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range s.appts {
		if a.Status == model.AppointmentStatusPending && a.CreatedAt.Before(before) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeAppointmentStore) ListOverdueApproved(_ context.Context, startedBefore time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range s.appts {
		if a.Status == model.AppointmentStatusApproved && a.Slot != nil && a.Slot.StartTime.Before(startedBefore) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeWaitlistStore struct {
	nextID  int64
	entries []*model.WaitlistEntry
}

func newFakeWaitlistStore() *fakeWaitlistStore {
	return &fakeWaitlistStore{}
}

func (s *fakeWaitlistStore) Add(_ context.Context, entry *model.WaitlistEntry) error {
	for _, e := range s.entries {
		if e.SlotID == entry.SlotID && e.StudentID == entry.StudentID {
			return repository.ErrDuplicate
		}
	}
	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeWaitlistStore) FirstBySlotForUpdate(_ context.Context, slotID int64) (*model.WaitlistEntry, error) {
	for _, e := range s.entries {
		if e.SlotID == slotID {
			return e, nil
		}
	}
	return nil, nil
}

func (s *fakeWaitlistStore) Delete(_ context.Context, id int64) error {
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeWaitlistStore) DeleteBySlotStudent(_ context.Context, slotID, studentID int64) error {
	for i, e := range s.entries {
		if e.SlotID == slotID && e.StudentID == studentID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeWaitlistStore) ListBySlot(_ context.Context, slotID int64) ([]*model.WaitlistEntry, error) {
	var out []*model.WaitlistEntry
	for _, e := range s.entries {
		if e.SlotID == slotID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeWaitlistStore) ListByStudent(_ context.Context, studentID int64) ([]*model.WaitlistEntry, error) {
	var out []*model.WaitlistEntry
	for _, e := range s.entries {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeMinuteStore struct {
	nextID  int64
	minutes map[int64]*model.Minute // по appointment_id
}

func newFakeMinuteStore() *fakeMinuteStore {
	return &fakeMinuteStore{minutes: make(map[int64]*model.Minute)}
}

func (s *fakeMinuteStore) Upsert(_ context.Context, minute *model.Minute) error {
	if existing, ok := s.minutes[minute.AppointmentID]; ok {
		existing.Body = minute.Body
		minute.ID = existing.ID
		return nil
	}
	s.nextID++
	minute.ID = s.nextID
	s.minutes[minute.AppointmentID] = minute
	return nil
}

func (s *fakeMinuteStore) GetByAppointmentID(_ context.Context, appointmentID int64) (*model.Minute, error) {
	return s.minutes[appointmentID], nil
}

func (s *fakeMinuteStore) ListByAdvisor(_ context.Context, advisorID int64) ([]*model.Minute, error) {
	var out []*model.Minute
	for _, m := range s.minutes {
		if m.AdvisorID == advisorID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeNoticeStore struct {
	nextID  int64
	notices []*model.Notice
}

func newFakeNoticeStore() *fakeNoticeStore {
	return &fakeNoticeStore{}
}

func (s *fakeNoticeStore) Create(_ context.Context, notice *model.Notice) error {
	s.nextID++
	notice.ID = s.nextID
	s.notices = append(s.notices, notice)
	return nil
}

func (s *fakeNoticeStore) List(_ context.Context) ([]*model.Notice, error) {
	return s.notices, nil
}

type fakeOutbox struct {
	nextID        int64
	notifications []*model.Notification
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{}
}

func (s *fakeOutbox) Enqueue(_ context.Context, n *model.Notification) error {
	s.nextID++
	n.ID = s.nextID
	s.notifications = append(s.notifications, n)
	return nil
}

// byKind выбирает уведомления одного вида
func (s *fakeOutbox) byKind(kind model.NotificationKind) []*model.Notification {
	var out []*model.Notification
	for _, n := range s.notifications {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type fakeFreedHook struct {
	slotIDs []int64
	err     error
}

func (h *fakeFreedHook) OnSlotFreed(_ context.Context, slotID int64) error {
	h.slotIDs = append(h.slotIDs, slotID)
	return h.err
}
