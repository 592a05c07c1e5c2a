package service

import "github.com/5h444n/cams/internal/model"

// Actor аутентифицированный инициатор операции.
// Аутентификация выполняется вне сервиса, сюда приходит готовая личность.
type Actor struct {
	ID   int64
	Role model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}
