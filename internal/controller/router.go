package controller

import (
	"github.com/5h444n/cams/internal/model"
	"github.com/5h444n/cams/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// NewRouter собирает HTTP-приложение с роутами и middleware
func NewRouter(
	users service.UserStore,
	student *StudentHandler,
	advisor *AdvisorHandler,
	admin *AdminHandler,
	logger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "cams",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", Identity(users))

	// Общие роуты
	api.Get("/notices", admin.ListNotices)

	// Студент. Общий guard вешать на /api нельзя — он накрыл бы
	// и advisor/admin роуты, поэтому проверка роли на каждом роуте.
	studentOnly := RequireRole(model.RoleStudent)
	api.Get("/slots", studentOnly, student.ListOpenSlots)
	api.Post("/slots/:id/book", studentOnly, student.Book)
	api.Post("/slots/:id/waitlist", studentOnly, student.JoinWaitlist)
	api.Delete("/slots/:id/waitlist", studentOnly, student.LeaveWaitlist)
	api.Get("/waitlist", studentOnly, student.ListWaitlist)
	api.Get("/appointments", studentOnly, student.ListAppointments)

	// Отмена доступна обеим сторонам заявки, авторизация внутри сервиса
	api.Post("/appointments/:id/cancel", student.Cancel)

	// Консультант
	advisorGroup := api.Group("/advisor", RequireRole(model.RoleAdvisor))
	advisorGroup.Post("/slots", advisor.CreateSlot)
	advisorGroup.Get("/slots", advisor.ListSlots)
	advisorGroup.Post("/slots/:id/block", advisor.BlockSlot)
	advisorGroup.Post("/slots/:id/unblock", advisor.UnblockSlot)
	advisorGroup.Delete("/slots/:id", advisor.DeleteSlot)
	advisorGroup.Get("/appointments", advisor.ListAppointments)
	advisorGroup.Post("/appointments/:id/approve", advisor.Approve)
	advisorGroup.Post("/appointments/:id/decline", advisor.Decline)
	advisorGroup.Post("/appointments/:id/complete", advisor.Complete)
	advisorGroup.Put("/appointments/:id/minute", advisor.SaveMinute)
	advisorGroup.Get("/appointments/:id/minute", advisor.GetMinute)
	advisorGroup.Get("/minutes", advisor.ListMinutes)

	// Администратор
	adminGroup := api.Group("/admin", RequireRole(model.RoleAdmin))
	adminGroup.Post("/users", admin.CreateUser)
	adminGroup.Get("/users", admin.ListUsers)
	adminGroup.Post("/users/:id/deactivate", admin.DeactivateUser)
	adminGroup.Post("/users/:id/reactivate", admin.ReactivateUser)
	adminGroup.Post("/notices", admin.BroadcastNotice)

	return app
}
