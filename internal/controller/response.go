package controller

import (
	"errors"

	"github.com/5h444n/cams/internal/service"
	"github.com/gofiber/fiber/v2"
)

// respondError переводит доменную ошибку в HTTP-ответ.
// Конфликты бронирования и переходов отдаются как есть, чтобы
// пользователь видел конкретную причину отказа.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrSlotOpen),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDuplicateEntry):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotCancelable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, service.ErrInvalidInput
	}
	return int64(id), nil
}
