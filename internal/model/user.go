package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleAdvisor Role = "advisor"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Deactivated bool      `json:"deactivated"` // Мягкое удаление аккаунта
	CreatedAt   time.Time `json:"created_at"`
}
