package service

import (
	"context"
	"time"

	"github.com/5h444n/cams/internal/model"
	"go.uber.org/zap"
)

// AdvisorService управление расписанием консультанта и протоколами встреч
type AdvisorService struct {
	tx          Transactor
	slotStore   SlotStore
	apptStore   AppointmentStore
	minuteStore MinuteStore
	waitlist    *WaitlistService
	outbox      Outbox
	logger      *zap.Logger
	now         func() time.Time
}

func NewAdvisorService(
	tx Transactor,
	slotStore SlotStore,
	apptStore AppointmentStore,
	minuteStore MinuteStore,
	waitlist *WaitlistService,
	outbox Outbox,
	logger *zap.Logger,
) *AdvisorService {
	return &AdvisorService{
		tx:          tx,
		slotStore:   slotStore,
		apptStore:   apptStore,
		minuteStore: minuteStore,
		waitlist:    waitlist,
		outbox:      outbox,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateSlot создаёт одиночный слот консультанта
func (s *AdvisorService) CreateSlot(ctx context.Context, advisorID int64, start, end time.Time) (*model.Slot, error) {
	if !end.After(start) || !start.After(s.now()) {
		return nil, ErrInvalidInput
	}

	var slot *model.Slot
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.slotStore.ExistsAt(ctx, advisorID, start)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateEntry
		}

		slot = &model.Slot{
			AdvisorID: advisorID,
			StartTime: start,
			EndTime:   end,
			Status:    model.SlotStatusActive,
		}
		return s.slotStore.Create(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("advisor_id", advisorID),
		zap.Time("start_time", start),
	)

	return slot, nil
}

// CreateRecurringSlots разворачивает еженедельную серию на weeks недель вперёд.
// Недели, где слот на это время уже есть, пропускаются.
func (s *AdvisorService) CreateRecurringSlots(ctx context.Context, advisorID int64, start, end time.Time, weeks int) ([]*model.Slot, error) {
	if !end.After(start) || !start.After(s.now()) {
		return nil, ErrInvalidInput
	}
	if weeks < 1 || weeks > 52 {
		return nil, ErrInvalidInput
	}

	var slots []*model.Slot
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for week := 0; week < weeks; week++ {
			offset := time.Duration(week) * 7 * 24 * time.Hour
			slotStart := start.Add(offset)
			slotEnd := end.Add(offset)

			exists, err := s.slotStore.ExistsAt(ctx, advisorID, slotStart)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			slot := &model.Slot{
				AdvisorID: advisorID,
				StartTime: slotStart,
				EndTime:   slotEnd,
				Recurring: true,
				Status:    model.SlotStatusActive,
			}
			if err := s.slotStore.Create(ctx, slot); err != nil {
				return err
			}
			slots = append(slots, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Recurring slots created",
		zap.Int64("advisor_id", advisorID),
		zap.Int("count", len(slots)),
		zap.Int("weeks", weeks),
	)

	return slots, nil
}

// BlockSlot закрывает свободный слот для записи
func (s *AdvisorService) BlockSlot(ctx context.Context, slotID int64, actor Actor) error {
	return s.setSlotStatus(ctx, slotID, actor, model.SlotStatusBlocked)
}

// UnblockSlot снова открывает заблокированный слот
func (s *AdvisorService) UnblockSlot(ctx context.Context, slotID int64, actor Actor) error {
	return s.setSlotStatus(ctx, slotID, actor, model.SlotStatusActive)
}

func (s *AdvisorService) setSlotStatus(ctx context.Context, slotID int64, actor Actor, status model.SlotStatus) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.slotStore.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrNotFound
		}
		if !actor.IsAdmin() && actor.ID != slot.AdvisorID {
			return ErrForbidden
		}
		if slot.Status == status {
			return nil
		}

		if status == model.SlotStatusBlocked {
			// Занятый слот блокировать нельзя — сначала разобраться с заявкой
			active, err := s.apptStore.GetActiveBySlotID(ctx, slotID)
			if err != nil {
				return err
			}
			if active != nil {
				return ErrSlotUnavailable
			}
		}

		return s.slotStore.SetStatus(ctx, slotID, status)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot status changed",
		zap.Int64("slot_id", slotID),
		zap.String("status", string(status)),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// DeleteSlot удаляет слот. Активная заявка и вся очередь ожидания
// получают уведомление об отмене до каскадного удаления записей.
func (s *AdvisorService) DeleteSlot(ctx context.Context, slotID int64, actor Actor) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.slotStore.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrNotFound
		}
		if !actor.IsAdmin() && actor.ID != slot.AdvisorID {
			return ErrForbidden
		}

		active, err := s.apptStore.GetActiveBySlotID(ctx, slotID)
		if err != nil {
			return err
		}
		if active != nil {
			err = enqueueNotification(ctx, s.outbox, active.StudentID, model.NotificationSlotCancelled, map[string]any{
				"slot_id":    slot.ID,
				"token":      active.Token,
				"start_time": slot.StartTime,
			})
			if err != nil {
				return err
			}
		}

		if err := s.waitlist.NotifyAllCancelled(ctx, slot); err != nil {
			return err
		}

		return s.slotStore.Delete(ctx, slotID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.Int64("slot_id", slotID),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// ListSlots получает слоты консультанта с активными заявками
func (s *AdvisorService) ListSlots(ctx context.Context, advisorID int64, from, to time.Time) ([]*model.Slot, error) {
	slots, err := s.slotStore.ListByAdvisor(ctx, advisorID, from, to)
	if err != nil {
		return nil, err
	}

	for _, slot := range slots {
		active, err := s.apptStore.GetActiveBySlotID(ctx, slot.ID)
		if err != nil {
			return nil, err
		}
		slot.Appointment = active
	}

	return slots, nil
}

// ListAppointments получает нетерминальные заявки на слоты консультанта
func (s *AdvisorService) ListAppointments(ctx context.Context, advisorID int64) ([]*model.Appointment, error) {
	return s.apptStore.ListByAdvisor(ctx, advisorID)
}

// SaveMinute создаёт или обновляет протокол завершённой встречи.
// Протокол приватен: доступен только консультанту слота.
func (s *AdvisorService) SaveMinute(ctx context.Context, appointmentID int64, actor Actor, body string) (*model.Minute, error) {
	if body == "" {
		return nil, ErrInvalidInput
	}

	var minute *model.Minute
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appointment, err := s.apptStore.GetByID(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appointment == nil {
			return ErrNotFound
		}

		slot, err := s.slotStore.GetByID(ctx, appointment.SlotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrNotFound
		}
		if !actor.IsAdmin() && actor.ID != slot.AdvisorID {
			return ErrForbidden
		}
		if appointment.Status != model.AppointmentStatusCompleted {
			return ErrInvalidTransition
		}

		minute = &model.Minute{
			AppointmentID: appointmentID,
			AdvisorID:     slot.AdvisorID,
			Body:          body,
		}
		return s.minuteStore.Upsert(ctx, minute)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Minute saved",
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("advisor_id", actor.ID),
	)

	return minute, nil
}

// GetMinute получает протокол заявки; доступен консультанту слота и администратору
func (s *AdvisorService) GetMinute(ctx context.Context, appointmentID int64, actor Actor) (*model.Minute, error) {
	appointment, err := s.apptStore.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, ErrNotFound
	}

	slot, err := s.slotStore.GetByID(ctx, appointment.SlotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrNotFound
	}
	if !actor.IsAdmin() && actor.ID != slot.AdvisorID {
		return nil, ErrForbidden
	}

	minute, err := s.minuteStore.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if minute == nil {
		return nil, ErrNotFound
	}

	return minute, nil
}

// ListMinutes получает все протоколы консультанта
func (s *AdvisorService) ListMinutes(ctx context.Context, advisorID int64) ([]*model.Minute, error) {
	return s.minuteStore.ListByAdvisor(ctx, advisorID)
}
