package service

import (
	"context"
	"errors"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository"
	"go.uber.org/zap"
)

// WaitlistService очередь ожидания занятых слотов.
// Порядок строго FIFO по времени постановки.
type WaitlistService struct {
	tx            Transactor
	waitlistStore WaitlistStore
	slotStore     SlotStore
	apptStore     AppointmentStore
	userStore     UserStore
	outbox        Outbox
	logger        *zap.Logger
	now           func() time.Time
}

func NewWaitlistService(
	tx Transactor,
	waitlistStore WaitlistStore,
	slotStore SlotStore,
	apptStore AppointmentStore,
	userStore UserStore,
	outbox Outbox,
	logger *zap.Logger,
) *WaitlistService {
	return &WaitlistService{
		tx:            tx,
		waitlistStore: waitlistStore,
		slotStore:     slotStore,
		apptStore:     apptStore,
		userStore:     userStore,
		outbox:        outbox,
		logger:        logger,
		now:           time.Now,
	}
}

// Join ставит студента в очередь занятого слота
func (s *WaitlistService) Join(ctx context.Context, slotID, studentID int64) (*model.WaitlistEntry, error) {
	var entry *model.WaitlistEntry
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.slotStore.GetByID(ctx, slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrNotFound
		}
		if slot.Status != model.SlotStatusActive || !slot.StartTime.After(s.now()) {
			return ErrSlotUnavailable
		}

		active, err := s.apptStore.GetActiveBySlotID(ctx, slotID)
		if err != nil {
			return err
		}
		if active == nil {
			// Слот свободен — очередь не нужна
			return ErrSlotOpen
		}
		if active.StudentID == studentID {
			return ErrInvalidInput
		}

		entry = &model.WaitlistEntry{SlotID: slotID, StudentID: studentID}
		if err := s.waitlistStore.Add(ctx, entry); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateEntry
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student joined waitlist",
		zap.Int64("slot_id", slotID),
		zap.Int64("student_id", studentID),
	)

	return entry, nil
}

// Leave убирает студента из очереди слота
func (s *WaitlistService) Leave(ctx context.Context, slotID, studentID int64) error {
	err := s.waitlistStore.DeleteBySlotStudent(ctx, slotID, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ListByStudent получает записи студента во всех очередях
func (s *WaitlistService) ListByStudent(ctx context.Context, studentID int64) ([]*model.WaitlistEntry, error) {
	return s.waitlistStore.ListByStudent(ctx, studentID)
}

// OnSlotFreed уведомляет первого в очереди освободившегося слота и
// убирает его запись. Выбор и удаление атомарны: запись берётся с
// блокировкой, конкурентные освобождения одного слота не задвоят
// уведомление. Пустая очередь — тихий no-op. Записи деактивированных
// студентов вычищаются с предупреждением, уведомление уходит первому
// живому.
func (s *WaitlistService) OnSlotFreed(ctx context.Context, slotID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.slotStore.GetByID(ctx, slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			// Слот удалили раньше, чем дошёл сигнал; очередь снесена каскадом
			return nil
		}

		for {
			entry, err := s.waitlistStore.FirstBySlotForUpdate(ctx, slotID)
			if err != nil {
				return err
			}
			if entry == nil {
				return nil
			}

			student, err := s.userStore.GetByID(ctx, entry.StudentID)
			if err != nil {
				return err
			}
			if student == nil || student.Deactivated {
				s.logger.Warn("Removing stale waitlist entry",
					zap.Int64("entry_id", entry.ID),
					zap.Int64("slot_id", slotID),
					zap.Int64("student_id", entry.StudentID),
				)
				if err := s.waitlistStore.Delete(ctx, entry.ID); err != nil {
					return err
				}
				continue
			}

			err = enqueueNotification(ctx, s.outbox, entry.StudentID, model.NotificationSlotFreed, map[string]any{
				"slot_id":    slot.ID,
				"advisor_id": slot.AdvisorID,
				"start_time": slot.StartTime,
				"end_time":   slot.EndTime,
			})
			if err != nil {
				return err
			}
			if err := s.waitlistStore.Delete(ctx, entry.ID); err != nil {
				return err
			}

			s.logger.Info("Waitlisted student notified of freed slot",
				zap.Int64("slot_id", slotID),
				zap.Int64("student_id", entry.StudentID),
			)
			return nil
		}
	})
}

// NotifyAllCancelled уведомляет всю очередь об отмене слота.
// Вызывается внутри транзакции удаления слота, до каскадного сноса записей.
func (s *WaitlistService) NotifyAllCancelled(ctx context.Context, slot *model.Slot) error {
	entries, err := s.waitlistStore.ListBySlot(ctx, slot.ID)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		student, err := s.userStore.GetByID(ctx, entry.StudentID)
		if err != nil {
			return err
		}
		if student == nil || student.Deactivated {
			continue
		}

		err = enqueueNotification(ctx, s.outbox, entry.StudentID, model.NotificationSlotCancelled, map[string]any{
			"slot_id":    slot.ID,
			"advisor_id": slot.AdvisorID,
			"start_time": slot.StartTime,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
