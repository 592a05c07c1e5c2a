package service

import (
	"context"
	"time"

	"github.com/5h444n/cams/internal/model"
)

// StudentService запросы студента: свободные слоты и собственные заявки
type StudentService struct {
	slotStore SlotStore
	apptStore AppointmentStore
	now       func() time.Time
}

func NewStudentService(slotStore SlotStore, apptStore AppointmentStore) *StudentService {
	return &StudentService{
		slotStore: slotStore,
		apptStore: apptStore,
		now:       time.Now,
	}
}

// ListOpenSlots получает свободные будущие слоты, опционально одного консультанта
func (s *StudentService) ListOpenSlots(ctx context.Context, advisorID *int64) ([]*model.Slot, error) {
	return s.slotStore.ListOpen(ctx, advisorID, s.now())
}

// ListAppointments получает все заявки студента
func (s *StudentService) ListAppointments(ctx context.Context, studentID int64) ([]*model.Appointment, error) {
	return s.apptStore.ListByStudent(ctx, studentID)
}
