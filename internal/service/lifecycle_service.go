package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository"
	"go.uber.org/zap"
)

// LifecycleService управляет жизненным циклом заявок и слотов.
// Каждая операция — одна транзакция: смена статуса заявки и освобождение
// слота никогда не видны по отдельности.
type LifecycleService struct {
	tx           Transactor
	slotStore    SlotStore
	apptStore    AppointmentStore
	outbox       Outbox
	freed        SlotFreedHook
	logger       *zap.Logger
	now          func() time.Time
	tokenRetries int
}

func NewLifecycleService(
	tx Transactor,
	slotStore SlotStore,
	apptStore AppointmentStore,
	outbox Outbox,
	freed SlotFreedHook,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		tx:           tx,
		slotStore:    slotStore,
		apptStore:    apptStore,
		outbox:       outbox,
		freed:        freed,
		logger:       logger,
		now:          time.Now,
		tokenRetries: 3,
	}
}

// Book создаёт заявку на свободный слот.
// Слот берётся с блокировкой строки: из конкурентных бронирований
// выигрывает одно, проигравший получает ErrSlotUnavailable.
func (s *LifecycleService) Book(ctx context.Context, slotID, studentID int64, purpose string) (*model.Appointment, error) {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, ErrInvalidInput
	}

	var appointment *model.Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.slotStore.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrNotFound
		}
		if slot.Status != model.SlotStatusActive {
			return ErrSlotUnavailable
		}
		if !slot.StartTime.After(s.now()) {
			return ErrSlotUnavailable
		}

		active, err := s.apptStore.GetActiveBySlotID(ctx, slotID)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrSlotUnavailable
		}

		appointment = &model.Appointment{
			StudentID: studentID,
			SlotID:    slotID,
			Purpose:   purpose,
			Status:    model.AppointmentStatusPending,
		}

		// Коллизия токена крайне маловероятна, но unique-индекс её поймает
		for attempt := 0; ; attempt++ {
			appointment.Token = newToken()
			err = s.apptStore.Create(ctx, appointment)
			if errors.Is(err, repository.ErrDuplicate) && attempt < s.tokenRetries {
				continue
			}
			break
		}
		if errors.Is(err, repository.ErrDuplicate) {
			// Частичный unique-индекс по slot_id: слот заняли параллельно
			return ErrSlotUnavailable
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot booked",
		zap.Int64("appointment_id", appointment.ID),
		zap.String("token", appointment.Token),
		zap.Int64("student_id", studentID),
		zap.Int64("slot_id", slotID),
	)

	return appointment, nil
}

// Approve подтверждает pending-заявку
func (s *LifecycleService) Approve(ctx context.Context, appointmentID int64, actor Actor) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appointment, slot, err := s.loadForAdvisorAction(ctx, appointmentID, actor)
		if err != nil {
			return err
		}

		if err := s.transition(ctx, appointment, model.AppointmentStatusApproved); err != nil {
			return err
		}

		return enqueueNotification(ctx, s.outbox, appointment.StudentID, model.NotificationAppointmentApproved, map[string]any{
			"token":      appointment.Token,
			"slot_id":    slot.ID,
			"start_time": slot.StartTime,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("Appointment approved",
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("advisor_id", actor.ID),
	)

	return nil
}

// Decline отклоняет pending-заявку и освобождает слот
func (s *LifecycleService) Decline(ctx context.Context, appointmentID int64, actor Actor) error {
	var slotID int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appointment, slot, err := s.loadForAdvisorAction(ctx, appointmentID, actor)
		if err != nil {
			return err
		}
		slotID = slot.ID

		if err := s.transition(ctx, appointment, model.AppointmentStatusDeclined); err != nil {
			return err
		}

		return enqueueNotification(ctx, s.outbox, appointment.StudentID, model.NotificationAppointmentDeclined, map[string]any{
			"token":      appointment.Token,
			"slot_id":    slot.ID,
			"start_time": slot.StartTime,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("Appointment declined",
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("advisor_id", actor.ID),
	)

	s.notifySlotFreed(ctx, slotID)
	return nil
}

// Cancel отменяет pending/approved заявку до начала встречи.
// Разрешено студенту-владельцу, консультанту слота и администратору.
func (s *LifecycleService) Cancel(ctx context.Context, appointmentID int64, actor Actor) error {
	var slotID int64
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
		slotID = slot.ID

		if !actor.IsAdmin() && actor.ID != appointment.StudentID && actor.ID != slot.AdvisorID {
			return ErrForbidden
		}

		if !model.CanTransition(appointment.Status, model.AppointmentStatusCancelled) {
			return ErrNotCancelable
		}
		if !slot.StartTime.After(s.now()) {
			return ErrNotCancelable
		}

		if err := s.transition(ctx, appointment, model.AppointmentStatusCancelled); err != nil {
			return err
		}

		// Уведомляем вторую сторону
		recipientID := appointment.StudentID
		if actor.ID == appointment.StudentID {
			recipientID = slot.AdvisorID
		}
		return enqueueNotification(ctx, s.outbox, recipientID, model.NotificationAppointmentCancelled, map[string]any{
			"token":      appointment.Token,
			"slot_id":    slot.ID,
			"start_time": slot.StartTime,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("Appointment cancelled",
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("actor_id", actor.ID),
	)

	s.notifySlotFreed(ctx, slotID)
	return nil
}

// Complete завершает approved-заявку и сохраняет пометку консультанта.
// Слот не освобождается: встреча состоялась, время потрачено.
func (s *LifecycleService) Complete(ctx context.Context, appointmentID int64, actor Actor, note string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appointment, _, err := s.loadForAdvisorAction(ctx, appointmentID, actor)
		if err != nil {
			return err
		}

		if err := s.transition(ctx, appointment, model.AppointmentStatusCompleted); err != nil {
			return err
		}

		if note = strings.TrimSpace(note); note != "" {
			if err := s.apptStore.SetNote(ctx, appointment.ID, note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Appointment completed",
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("advisor_id", actor.ID),
	)

	return nil
}

// loadForAdvisorAction загружает заявку со слотом и проверяет,
// что действует консультант слота или администратор
func (s *LifecycleService) loadForAdvisorAction(ctx context.Context, appointmentID int64, actor Actor) (*model.Appointment, *model.Slot, error) {
	appointment, err := s.apptStore.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	if appointment == nil {
		return nil, nil, ErrNotFound
	}

	slot, err := s.slotStore.GetByID(ctx, appointment.SlotID)
	if err != nil {
		return nil, nil, err
	}
	if slot == nil {
		return nil, nil, ErrNotFound
	}

	if !actor.IsAdmin() && actor.ID != slot.AdvisorID {
		return nil, nil, ErrForbidden
	}

	return appointment, slot, nil
}

// transition проверяет допустимость перехода и применяет его условным
// обновлением; проигрыш гонки статусов тоже ErrInvalidTransition
func (s *LifecycleService) transition(ctx context.Context, appointment *model.Appointment, to model.AppointmentStatus) error {
	if !model.CanTransition(appointment.Status, to) {
		return ErrInvalidTransition
	}

	err := s.apptStore.UpdateStatus(ctx, appointment.ID, appointment.Status, to)
	if errors.Is(err, repository.ErrStatusConflict) {
		return ErrInvalidTransition
	}
	if err != nil {
		return err
	}

	appointment.Status = to
	return nil
}

// notifySlotFreed дёргает обработчик освобождения слота после коммита.
// Ошибки обработчика логируются и не влияют на уже применённый переход.
func (s *LifecycleService) notifySlotFreed(ctx context.Context, slotID int64) {
	if s.freed == nil {
		return
	}
	if err := s.freed.OnSlotFreed(ctx, slotID); err != nil {
		s.logger.Warn("Slot freed hook failed",
			zap.Int64("slot_id", slotID),
			zap.Error(err),
		)
	}
}
