package service

import (
	"context"
	"errors"
	"strings"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/repository"
	"go.uber.org/zap"
)

// AdminService надзор за пользователями и рассылка объявлений
type AdminService struct {
	tx          Transactor
	userStore   UserStore
	noticeStore NoticeStore
	outbox      Outbox
	logger      *zap.Logger
}

func NewAdminService(
	tx Transactor,
	userStore UserStore,
	noticeStore NoticeStore,
	outbox Outbox,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		tx:          tx,
		userStore:   userStore,
		noticeStore: noticeStore,
		outbox:      outbox,
		logger:      logger,
	}
}

// CreateUser заводит аккаунт. Аутентификация внешняя, поэтому аккаунты
// появляются только через администратора.
func (s *AdminService) CreateUser(ctx context.Context, actor Actor, name, email string, role model.Role) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, ErrInvalidInput
	}
	switch role {
	case model.RoleStudent, model.RoleAdvisor, model.RoleAdmin:
	default:
		return nil, ErrInvalidInput
	}

	user := &model.User{Name: name, Email: email, Role: role}
	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEntry
		}
		return nil, err
	}

	s.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(role)),
		zap.Int64("admin_id", actor.ID),
	)

	return user, nil
}

// ListUsers получает всех пользователей
func (s *AdminService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userStore.List(ctx)
}

// SetUserDeactivated выключает или включает аккаунт
func (s *AdminService) SetUserDeactivated(ctx context.Context, userID int64, actor Actor, deactivated bool) error {
	if actor.ID == userID {
		// Администратор не может выключить сам себя
		return ErrInvalidInput
	}

	err := s.userStore.SetDeactivated(ctx, userID, deactivated)
	if err != nil {
		return err
	}

	s.logger.Info("User deactivation changed",
		zap.Int64("user_id", userID),
		zap.Bool("deactivated", deactivated),
		zap.Int64("admin_id", actor.ID),
	)

	return nil
}

// BroadcastNotice сохраняет объявление и ставит уведомление каждому
// активному пользователю. Запись объявления и вся рассылка атомарны.
func (s *AdminService) BroadcastNotice(ctx context.Context, actor Actor, title, body string) (*model.Notice, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, ErrInvalidInput
	}

	var notice *model.Notice
	var recipients int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		notice = &model.Notice{
			Title:     title,
			Body:      body,
			CreatedBy: actor.ID,
		}
		if err := s.noticeStore.Create(ctx, notice); err != nil {
			return err
		}

		ids, err := s.userStore.ListActiveIDs(ctx)
		if err != nil {
			return err
		}

		for _, id := range ids {
			err := enqueueNotification(ctx, s.outbox, id, model.NotificationNotice, map[string]any{
				"notice_id": notice.ID,
				"title":     notice.Title,
				"body":      notice.Body,
			})
			if err != nil {
				return err
			}
		}
		recipients = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Notice broadcast",
		zap.Int64("notice_id", notice.ID),
		zap.Int("recipients", recipients),
		zap.Int64("admin_id", actor.ID),
	)

	return notice, nil
}

// ListNotices получает объявления
func (s *AdminService) ListNotices(ctx context.Context) ([]*model.Notice, error) {
	return s.noticeStore.List(ctx)
}
