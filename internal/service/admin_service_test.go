package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/5h444n/cams/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type adminFixture struct {
	users   *fakeUserStore
	notices *fakeNoticeStore
	outbox  *fakeOutbox
	svc     *AdminService
}

func newAdminFixture() *adminFixture {
	users := newFakeUserStore()
	notices := newFakeNoticeStore()
	outbox := newFakeOutbox()

	svc := NewAdminService(fakeTx{}, users, notices, outbox, zap.NewNop())

	return &adminFixture{users: users, notices: notices, outbox: outbox, svc: svc}
}

func TestCreateUser(t *testing.T) {
	f := newAdminFixture()
	admin := Actor{ID: 99, Role: model.RoleAdmin}

	user, err := f.svc.CreateUser(context.Background(), admin, "Ivan Petrov", "ivan@uni.edu", model.RoleStudent)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	// Повторный email — конфликт
	_, err = f.svc.CreateUser(context.Background(), admin, "Other", "ivan@uni.edu", model.RoleAdvisor)
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	_, err = f.svc.CreateUser(context.Background(), admin, "", "x@uni.edu", model.RoleStudent)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateUser(context.Background(), admin, "Name", "y@uni.edu", model.Role("ghost"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetUserDeactivated(t *testing.T) {
	f := newAdminFixture()
	f.users.users[1] = &model.User{ID: 1, Role: model.RoleStudent}

	admin := Actor{ID: 99, Role: model.RoleAdmin}

	require.NoError(t, f.svc.SetUserDeactivated(context.Background(), 1, admin, true))
	assert.True(t, f.users.users[1].Deactivated)

	require.NoError(t, f.svc.SetUserDeactivated(context.Background(), 1, admin, false))
	assert.False(t, f.users.users[1].Deactivated)

	// Администратор не выключает сам себя
	err := f.svc.SetUserDeactivated(context.Background(), 99, admin, true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBroadcastNotice(t *testing.T) {
	f := newAdminFixture()
	f.users.users[1] = &model.User{ID: 1, Role: model.RoleStudent}
	f.users.users[2] = &model.User{ID: 2, Role: model.RoleAdvisor}
	f.users.users[3] = &model.User{ID: 3, Role: model.RoleStudent, Deactivated: true}

	notice, err := f.svc.BroadcastNotice(context.Background(), Actor{ID: 99, Role: model.RoleAdmin}, "Exam week", "Extra slots available")
	require.NoError(t, err)
	assert.NotZero(t, notice.ID)

	// Уведомление получает каждый активный пользователь
	notifications := f.outbox.byKind(model.NotificationNotice)
	require.Len(t, notifications, 2)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(notifications[0].Payload, &payload))
	assert.Equal(t, "Exam week", payload["title"])
}

func TestBroadcastNoticeValidation(t *testing.T) {
	f := newAdminFixture()

	_, err := f.svc.BroadcastNotice(context.Background(), Actor{ID: 99, Role: model.RoleAdmin}, "  ", "body")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.BroadcastNotice(context.Background(), Actor{ID: 99, Role: model.RoleAdmin}, "title", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, f.outbox.notifications)
}
