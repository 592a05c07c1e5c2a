package repository

import (
	"context"
	"fmt"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NoticeRepository struct {
	*base.Repository
}

func NewNoticeRepository(pool *pgxpool.Pool) *NoticeRepository {
	return &NoticeRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет объявление
func (r *NoticeRepository) Create(ctx context.Context, notice *model.Notice) error {
	query := `
		INSERT INTO notices (title, body, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.DB(ctx).QueryRow(ctx, query, notice.Title, notice.Body, notice.CreatedBy).
		Scan(&notice.ID, &notice.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notice: %w", err)
	}

	return nil
}

// List получает объявления, новые первыми
func (r *NoticeRepository) List(ctx context.Context) ([]*model.Notice, error) {
	query := `
		SELECT id, title, body, created_by, created_at
		FROM notices
		ORDER BY created_at DESC
	`

	rows, err := r.DB(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var notices []*model.Notice
	for rows.Next() {
		var notice model.Notice
		err := rows.Scan(
			&notice.ID,
			&notice.Title,
			&notice.Body,
			&notice.CreatedBy,
			&notice.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, &notice)
	}

	return notices, nil
}
