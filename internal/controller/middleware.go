package controller

import (
	"strconv"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const actorKey = "actor"

// RequestLogger логирует каждый запрос
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logger.Info("Request handled",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}

// Identity достаёт личность из заголовка X-User-ID.
// Аутентификация выполняется выше по стеку (gateway), сервис доверяет
// заголовку и только проверяет, что аккаунт существует и активен.
func Identity(users service.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("X-User-ID")
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing X-User-ID header"})
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid X-User-ID header"})
		}

		user, err := users.GetByID(c.Context(), id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
		if user == nil || user.Deactivated {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown or deactivated user"})
		}

		c.Locals(actorKey, service.Actor{ID: user.ID, Role: user.Role})
		return c.Next()
	}
}

// RequireRole пропускает только перечисленные роли; admin проходит всегда
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := actorFromCtx(c)
		if actor.IsAdmin() {
			return c.Next()
		}
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}
}

func actorFromCtx(c *fiber.Ctx) service.Actor {
	actor, _ := c.Locals(actorKey).(service.Actor)
	return actor
}
