package repository

import (
	"context"
	"fmt"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(pool)}
}

// Enqueue кладёт уведомление в outbox.
// Вызывается внутри доменной транзакции, чтобы уведомление и изменение
// состояния были атомарны.
func (r *NotificationRepository) Enqueue(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, kind, payload, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, created_at
	`

	err := r.DB(ctx).QueryRow(ctx, query, n.RecipientID, n.Kind, n.Payload).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	n.Status = model.NotificationStatusPending
	return nil
}

// ListPending получает порцию недоставленных уведомлений, старые первыми
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, recipient_id, kind, payload, status, attempts, created_at, sent_at
		FROM notifications
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1
	`

	rows, err := r.DB(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.Kind,
			&n.Payload,
			&n.Status,
			&n.Attempts,
			&n.CreatedAt,
			&n.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, nil
}

// MarkSent помечает уведомление доставленным
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE notifications
		SET status = 'sent', attempts = attempts + 1, sent_at = now()
		WHERE id = $1
	`

	result, err := r.DB(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkFailed фиксирует неудачную попытку; final переводит запись в failed
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, final bool) error {
	query := `
		UPDATE notifications
		SET attempts = attempts + 1,
		    status = CASE WHEN $2 THEN 'failed' ELSE status END
		WHERE id = $1
	`

	result, err := r.DB(ctx).Exec(ctx, query, id, final)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
