package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

const slotColumns = `id, advisor_id, start_time, end_time, recurring, status, created_at`

func scanSlot(row interface{ Scan(dest ...any) error }, slot *model.Slot) error {
	return row.Scan(
		&slot.ID,
		&slot.AdvisorID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Recurring,
		&slot.Status,
		&slot.CreatedAt,
	)
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (advisor_id, start_time, end_time, recurring, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.DB(ctx).QueryRow(
		ctx, query,
		slot.AdvisorID,
		slot.StartTime,
		slot.EndTime,
		slot.Recurring,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	var slot model.Slot
	err := scanSlot(r.DB(ctx).QueryRow(ctx, query, id), &slot)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return &slot, nil
}

// GetByIDForUpdate получает слот по ID с блокировкой строки.
// Блокировка сериализует конкурентные попытки записи на один слот.
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1 FOR UPDATE`

	var slot model.Slot
	err := scanSlot(r.DB(ctx).QueryRow(ctx, query, id), &slot)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot for update: %w", err)
	}

	return &slot, nil
}

// ListOpen получает свободные для записи слоты начиная с from.
// Свободен = active и без заявки в нетерминальном статусе.
func (r *SlotRepository) ListOpen(ctx context.Context, advisorID *int64, from time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots s
		WHERE s.status = 'active'
		  AND s.start_time >= $1
		  AND NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.slot_id = s.id AND a.status IN ('pending', 'approved')
		  )
	`
	args := []any{from}

	if advisorID != nil {
		query += ` AND s.advisor_id = $2`
		args = append(args, *advisorID)
	}
	query += ` ORDER BY s.start_time`

	rows, err := r.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list open slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		if err := scanSlot(rows, &slot); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, nil
}

// ListByAdvisor получает все слоты консультанта в заданном диапазоне времени
func (r *SlotRepository) ListByAdvisor(ctx context.Context, advisorID int64, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE advisor_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`

	rows, err := r.DB(ctx).Query(ctx, query, advisorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list slots by advisor: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		if err := scanSlot(rows, &slot); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, nil
}

// SetStatus обновляет статус слота
func (r *SlotRepository) SetStatus(ctx context.Context, id int64, status model.SlotStatus) error {
	query := `
		UPDATE slots
		SET status = $1
		WHERE id = $2
	`

	result, err := r.DB(ctx).Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("set slot status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete удаляет слот; заявки и очередь ожидания удаляются каскадом
func (r *SlotRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM slots WHERE id = $1`

	result, err := r.DB(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ExistsAt проверяет существование слота консультанта на указанное время
func (r *SlotRepository) ExistsAt(ctx context.Context, advisorID int64, startTime time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM slots
			WHERE advisor_id = $1 AND start_time = $2
		)
	`

	var exists bool
	err := r.DB(ctx).QueryRow(ctx, query, advisorID, startTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot exists: %w", err)
	}

	return exists, nil
}
