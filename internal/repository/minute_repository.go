package repository

import (
	"context"
	"fmt"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MinuteRepository struct {
	*base.Repository
}

func NewMinuteRepository(pool *pgxpool.Pool) *MinuteRepository {
	return &MinuteRepository{Repository: base.NewRepository(pool)}
}

// Upsert создаёт или обновляет протокол встречи (один на заявку)
func (r *MinuteRepository) Upsert(ctx context.Context, minute *model.Minute) error {
	query := `
		INSERT INTO minutes (appointment_id, advisor_id, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (appointment_id)
		DO UPDATE SET body = EXCLUDED.body, updated_at = now()
		RETURNING id, created_at, updated_at
	`

	err := r.DB(ctx).QueryRow(ctx, query, minute.AppointmentID, minute.AdvisorID, minute.Body).
		Scan(&minute.ID, &minute.CreatedAt, &minute.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert minute: %w", err)
	}

	return nil
}

// GetByAppointmentID получает протокол по заявке
func (r *MinuteRepository) GetByAppointmentID(ctx context.Context, appointmentID int64) (*model.Minute, error) {
	query := `
		SELECT id, appointment_id, advisor_id, body, created_at, updated_at
		FROM minutes
		WHERE appointment_id = $1
	`

	var minute model.Minute
	err := r.DB(ctx).QueryRow(ctx, query, appointmentID).Scan(
		&minute.ID,
		&minute.AppointmentID,
		&minute.AdvisorID,
		&minute.Body,
		&minute.CreatedAt,
		&minute.UpdatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get minute by appointment: %w", err)
	}

	return &minute, nil
}

// ListByAdvisor получает все протоколы консультанта
func (r *MinuteRepository) ListByAdvisor(ctx context.Context, advisorID int64) ([]*model.Minute, error) {
	query := `
		SELECT id, appointment_id, advisor_id, body, created_at, updated_at
		FROM minutes
		WHERE advisor_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.DB(ctx).Query(ctx, query, advisorID)
	if err != nil {
		return nil, fmt.Errorf("list minutes by advisor: %w", err)
	}
	defer rows.Close()

	var minutes []*model.Minute
	for rows.Next() {
		var minute model.Minute
		err := rows.Scan(
			&minute.ID,
			&minute.AppointmentID,
			&minute.AdvisorID,
			&minute.Body,
			&minute.CreatedAt,
			&minute.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan minute: %w", err)
		}
		minutes = append(minutes, &minute)
	}

	return minutes, nil
}
