package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{Repository: base.NewRepository(pool)}
}

const appointmentColumns = `id, token, student_id, slot_id, purpose, status, note, created_at, updated_at`

func scanAppointment(row interface{ Scan(dest ...any) error }, a *model.Appointment) error {
	return row.Scan(
		&a.ID,
		&a.Token,
		&a.StudentID,
		&a.SlotID,
		&a.Purpose,
		&a.Status,
		&a.Note,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

// Create создаёт новую заявку
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (token, student_id, slot_id, purpose, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.DB(ctx).QueryRow(
		ctx, query,
		a.Token,
		a.StudentID,
		a.SlotID,
		a.Purpose,
		a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var a model.Appointment
	err := scanAppointment(r.DB(ctx).QueryRow(ctx, query, id), &a)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return &a, nil
}

// GetActiveBySlotID получает нетерминальную заявку на слот, если она есть
func (r *AppointmentRepository) GetActiveBySlotID(ctx context.Context, slotID int64) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE slot_id = $1 AND status IN ('pending', 'approved')
		LIMIT 1
	`

	var a model.Appointment
	err := scanAppointment(r.DB(ctx).QueryRow(ctx, query, slotID), &a)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active appointment by slot: %w", err)
	}

	return &a, nil
}

// ListByStudent получает все заявки студента
func (r *AppointmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE student_id = $1
		ORDER BY created_at DESC
	`

	return r.list(ctx, query, studentID)
}

// ListByAdvisor получает заявки на слоты консультанта в нетерминальных статусах
func (r *AppointmentRepository) ListByAdvisor(ctx context.Context, advisorID int64) ([]*model.Appointment, error) {
	query := `
		SELECT a.id, a.token, a.student_id, a.slot_id, a.purpose, a.status, a.note, a.created_at, a.updated_at
		FROM appointments a
		JOIN slots s ON s.id = a.slot_id
		WHERE s.advisor_id = $1 AND a.status IN ('pending', 'approved')
		ORDER BY a.created_at
	`

	return r.list(ctx, query, advisorID)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]*model.Appointment, error) {
	rows, err := r.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, &a)
	}

	return appointments, nil
}

// UpdateStatus переводит заявку из статуса from в статус to.
// Условие по from делает обновление безопасным при гонке: проигравший
// получает ErrStatusConflict вместо затирания чужого перехода.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`

	result, err := r.DB(ctx).Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	return nil
}

// SetNote сохраняет пометку консультанта на заявке
func (r *AppointmentRepository) SetNote(ctx context.Context, id int64, note string) error {
	query := `
		UPDATE appointments
		SET note = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.DB(ctx).Exec(ctx, query, note, id)
	if err != nil {
		return fmt.Errorf("set appointment note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListStalePending получает pending-заявки, созданные раньше before.
// Вместе с заявкой подтягиваются имена студента и консультанта для логов.
func (r *AppointmentRepository) ListStalePending(ctx context.Context, before time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT a.id, a.token, a.student_id, a.slot_id, a.purpose, a.status, a.note, a.created_at, a.updated_at,
		       s.id, s.advisor_id, s.start_time, s.end_time, s.recurring, s.status, s.created_at,
		       st.id, st.name, st.email, st.role, st.deactivated, st.created_at,
		       ad.id, ad.name, ad.email, ad.role, ad.deactivated, ad.created_at
		FROM appointments a
		JOIN slots s ON s.id = a.slot_id
		JOIN users st ON st.id = a.student_id
		JOIN users ad ON ad.id = s.advisor_id
		WHERE a.status = 'pending' AND a.created_at < $1
		ORDER BY a.created_at
	`

	return r.listExpanded(ctx, query, before)
}

// ListOverdueApproved получает approved-заявки, чей слот начался раньше startedBefore
func (r *AppointmentRepository) ListOverdueApproved(ctx context.Context, startedBefore time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT a.id, a.token, a.student_id, a.slot_id, a.purpose, a.status, a.note, a.created_at, a.updated_at,
		       s.id, s.advisor_id, s.start_time, s.end_time, s.recurring, s.status, s.created_at,
		       st.id, st.name, st.email, st.role, st.deactivated, st.created_at,
		       ad.id, ad.name, ad.email, ad.role, ad.deactivated, ad.created_at
		FROM appointments a
		JOIN slots s ON s.id = a.slot_id
		JOIN users st ON st.id = a.student_id
		JOIN users ad ON ad.id = s.advisor_id
		WHERE a.status = 'approved' AND s.start_time < $1
		ORDER BY s.start_time
	`

	return r.listExpanded(ctx, query, startedBefore)
}

func (r *AppointmentRepository) listExpanded(ctx context.Context, query string, args ...any) ([]*model.Appointment, error) {
	rows, err := r.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments expanded: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		var (
			a       model.Appointment
			slot    model.Slot
			student model.User
			advisor model.User
		)
		err := rows.Scan(
			&a.ID, &a.Token, &a.StudentID, &a.SlotID, &a.Purpose, &a.Status, &a.Note, &a.CreatedAt, &a.UpdatedAt,
			&slot.ID, &slot.AdvisorID, &slot.StartTime, &slot.EndTime, &slot.Recurring, &slot.Status, &slot.CreatedAt,
			&student.ID, &student.Name, &student.Email, &student.Role, &student.Deactivated, &student.CreatedAt,
			&advisor.ID, &advisor.Name, &advisor.Email, &advisor.Role, &advisor.Deactivated, &advisor.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan appointment expanded: %w", err)
		}
		a.Slot = &slot
		a.Student = &student
		a.Advisor = &advisor
		appointments = append(appointments, &a)
	}

	return appointments, nil
}
