package service

import (
	"context"
	"errors"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository"
	"go.uber.org/zap"
)

// SweepService находит заявки, нарушившие временные пороги, и проводит
// их через жизненный цикл: протухшие pending отменяются, пропущенные
// approved помечаются no_show. Каждая запись обрабатывается в своей
// транзакции — сбой на одной не останавливает остальные.
type SweepService struct {
	tx        Transactor
	apptStore AppointmentStore
	outbox    Outbox
	freed     SlotFreedHook
	logger    *zap.Logger
	now       func() time.Time

	stalePendingAfter time.Duration
	noShowGrace       time.Duration
}

// SweepReport итог одного прохода
type SweepReport struct {
	StaleCancelled int
	NoShows        int
	Failed         int
}

func NewSweepService(
	tx Transactor,
	apptStore AppointmentStore,
	outbox Outbox,
	freed SlotFreedHook,
	stalePendingAfter, noShowGrace time.Duration,
	logger *zap.Logger,
) *SweepService {
	return &SweepService{
		tx:                tx,
		apptStore:         apptStore,
		outbox:            outbox,
		freed:             freed,
		logger:            logger,
		now:               time.Now,
		stalePendingAfter: stalePendingAfter,
		noShowGrace:       noShowGrace,
	}
}

// Run выполняет один проход. Повторный запуск сразу после успешного —
// no-op: предикаты выборки исключают уже обработанные записи.
func (s *SweepService) Run(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	if err := s.cancelStalePending(ctx, &report); err != nil {
		return report, err
	}
	if err := s.markNoShows(ctx, &report); err != nil {
		return report, err
	}

	return report, nil
}

// cancelStalePending отменяет pending-заявки старше порога и освобождает их слоты
func (s *SweepService) cancelStalePending(ctx context.Context, report *SweepReport) error {
	cutoff := s.now().Add(-s.stalePendingAfter)

	stale, err := s.apptStore.ListStalePending(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, appointment := range stale {
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.apptStore.UpdateStatus(ctx, appointment.ID, model.AppointmentStatusPending, model.AppointmentStatusCancelled); err != nil {
				return err
			}
			return enqueueNotification(ctx, s.outbox, appointment.StudentID, model.NotificationAppointmentCancelled, map[string]any{
				"token":  appointment.Token,
				"reason": "stale_pending",
			})
		})
		if errors.Is(err, repository.ErrStatusConflict) {
			// Заявку успели обработать параллельно — пропускаем
			continue
		}
		if err != nil {
			s.logger.Error("Failed to cancel stale appointment",
				zap.Int64("appointment_id", appointment.ID),
				zap.String("token", appointment.Token),
				zap.Error(err),
			)
			report.Failed++
			continue
		}

		s.logger.Info("Stale pending appointment cancelled",
			zap.Int64("appointment_id", appointment.ID),
			zap.String("token", appointment.Token),
			zap.String("student", appointment.Student.Name),
			zap.String("advisor", appointment.Advisor.Name),
			zap.Time("created_at", appointment.CreatedAt),
		)
		report.StaleCancelled++

		// Отмена освобождает слот — очередь ожидания получает сигнал
		s.notifySlotFreed(ctx, appointment.SlotID)
	}

	return nil
}

// markNoShows помечает approved-заявки, чья встреча началась раньше,
// чем now-grace, как no_show. Очередь ожидания здесь не уведомляется:
// слот освобождается, но сигнал намеренно не поднимается.
func (s *SweepService) markNoShows(ctx context.Context, report *SweepReport) error {
	cutoff := s.now().Add(-s.noShowGrace)

	overdue, err := s.apptStore.ListOverdueApproved(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, appointment := range overdue {
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			return s.apptStore.UpdateStatus(ctx, appointment.ID, model.AppointmentStatusApproved, model.AppointmentStatusNoShow)
		})
		if errors.Is(err, repository.ErrStatusConflict) {
			continue
		}
		if err != nil {
			s.logger.Error("Failed to mark appointment no-show",
				zap.Int64("appointment_id", appointment.ID),
				zap.String("token", appointment.Token),
				zap.Error(err),
			)
			report.Failed++
			continue
		}

		s.logger.Info("Missed appointment marked no-show",
			zap.Int64("appointment_id", appointment.ID),
			zap.String("token", appointment.Token),
			zap.String("student", appointment.Student.Name),
			zap.String("advisor", appointment.Advisor.Name),
			zap.Time("slot_start", appointment.Slot.StartTime),
		)
		report.NoShows++
	}

	return nil
}

func (s *SweepService) notifySlotFreed(ctx context.Context, slotID int64) {
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
