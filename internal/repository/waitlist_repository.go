package repository

import (
	"context"
	"fmt"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WaitlistRepository struct {
	*base.Repository
}

func NewWaitlistRepository(pool *pgxpool.Pool) *WaitlistRepository {
	return &WaitlistRepository{Repository: base.NewRepository(pool)}
}

// Add ставит студента в очередь ожидания слота
func (r *WaitlistRepository) Add(ctx context.Context, entry *model.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (slot_id, student_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.DB(ctx).QueryRow(ctx, query, entry.SlotID, entry.StudentID).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("add waitlist entry: %w", err)
	}

	return nil
}

// FirstBySlotForUpdate получает первую запись очереди с блокировкой.
// SKIP LOCKED гарантирует, что конкурентные освобождения одного слота
// не уведомят одну запись дважды и не перепрыгнут очередь.
func (r *WaitlistRepository) FirstBySlotForUpdate(ctx context.Context, slotID int64) (*model.WaitlistEntry, error) {
	query := `
		SELECT id, slot_id, student_id, created_at
		FROM waitlist_entries
		WHERE slot_id = $1
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var entry model.WaitlistEntry
	err := r.DB(ctx).QueryRow(ctx, query, slotID).Scan(
		&entry.ID,
		&entry.SlotID,
		&entry.StudentID,
		&entry.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get first waitlist entry: %w", err)
	}

	return &entry, nil
}

// Delete удаляет запись очереди по ID
func (r *WaitlistRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM waitlist_entries WHERE id = $1`

	result, err := r.DB(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete waitlist entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteBySlotStudent удаляет запись студента из очереди слота
func (r *WaitlistRepository) DeleteBySlotStudent(ctx context.Context, slotID, studentID int64) error {
	query := `DELETE FROM waitlist_entries WHERE slot_id = $1 AND student_id = $2`

	result, err := r.DB(ctx).Exec(ctx, query, slotID, studentID)
	if err != nil {
		return fmt.Errorf("delete waitlist entry by slot and student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListBySlot получает все записи очереди слота в порядке FIFO
func (r *WaitlistRepository) ListBySlot(ctx context.Context, slotID int64) ([]*model.WaitlistEntry, error) {
	query := `
		SELECT id, slot_id, student_id, created_at
		FROM waitlist_entries
		WHERE slot_id = $1
		ORDER BY created_at, id
	`

	return r.list(ctx, query, slotID)
}

// ListByStudent получает все записи студента в очередях
func (r *WaitlistRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.WaitlistEntry, error) {
	query := `
		SELECT id, slot_id, student_id, created_at
		FROM waitlist_entries
		WHERE student_id = $1
		ORDER BY created_at, id
	`

	return r.list(ctx, query, studentID)
}

func (r *WaitlistRepository) list(ctx context.Context, query string, args ...any) ([]*model.WaitlistEntry, error) {
	rows, err := r.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list waitlist entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.WaitlistEntry
	for rows.Next() {
		var entry model.WaitlistEntry
		err := rows.Scan(
			&entry.ID,
			&entry.SlotID,
			&entry.StudentID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}
