package controller

import (
	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/service"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler надзорные операции: пользователи и объявления
type AdminHandler struct {
	admins *service.AdminService
}

func NewAdminHandler(admins *service.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

type createUserRequest struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// CreateUser POST /api/admin/users
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, service.ErrInvalidInput)
	}

	user, err := h.admins.CreateUser(c.Context(), actorFromCtx(c), req.Name, req.Email, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// ListUsers GET /api/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.admins.ListUsers(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// DeactivateUser POST /api/admin/users/:id/deactivate
func (h *AdminHandler) DeactivateUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.admins.SetUserDeactivated(c.Context(), userID, actorFromCtx(c), true); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReactivateUser POST /api/admin/users/:id/reactivate
func (h *AdminHandler) ReactivateUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.admins.SetUserDeactivated(c.Context(), userID, actorFromCtx(c), false); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type noticeRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// BroadcastNotice POST /api/admin/notices
func (h *AdminHandler) BroadcastNotice(c *fiber.Ctx) error {
	var req noticeRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, service.ErrInvalidInput)
	}

	notice, err := h.admins.BroadcastNotice(c.Context(), actorFromCtx(c), req.Title, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"notice": notice})
}

// ListNotices GET /api/notices
func (h *AdminHandler) ListNotices(c *fiber.Ctx) error {
	notices, err := h.admins.ListNotices(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"notices": notices})
}
