package controller

import (
	"time"

	"github.com/5h444n/cams/internal/service"
	"github.com/gofiber/fiber/v2"
)

// AdvisorHandler операции консультанта: расписание, решения по заявкам, протоколы
type AdvisorHandler struct {
	advisors  *service.AdvisorService
	lifecycle *service.LifecycleService
}

func NewAdvisorHandler(advisors *service.AdvisorService, lifecycle *service.LifecycleService) *AdvisorHandler {
	return &AdvisorHandler{
		advisors:  advisors,
		lifecycle: lifecycle,
	}
}

type createSlotRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Weeks     int       `json:"weeks"`
}

// CreateSlot POST /api/advisor/slots
// При weeks > 1 разворачивается еженедельная серия
func (h *AdvisorHandler) CreateSlot(c *fiber.Ctx) error {
	var req createSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, service.ErrInvalidInput)
	}

	advisorID := actorFromCtx(c).ID

	if req.Weeks > 1 {
		slots, err := h.advisors.CreateRecurringSlots(c.Context(), advisorID, req.StartTime, req.EndTime, req.Weeks)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slots": slots})
	}

	slot, err := h.advisors.CreateSlot(c.Context(), advisorID, req.StartTime, req.EndTime)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slot": slot})
}

// ListSlots GET /api/advisor/slots?from=&to=
func (h *AdvisorHandler) ListSlots(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return respondError(c, err)
	}

	slots, err := h.advisors.ListSlots(c.Context(), actorFromCtx(c).ID, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}

// BlockSlot POST /api/advisor/slots/:id/block
func (h *AdvisorHandler) BlockSlot(c *fiber.Ctx) error {
	slotID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.advisors.BlockSlot(c.Context(), slotID, actorFromCtx(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnblockSlot POST /api/advisor/slots/:id/unblock
func (h *AdvisorHandler) UnblockSlot(c *fiber.Ctx) error {
	slotID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.advisors.UnblockSlot(c.Context(), slotID, actorFromCtx(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteSlot DELETE /api/advisor/slots/:id
func (h *AdvisorHandler) DeleteSlot(c *fiber.Ctx) error {
	slotID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.advisors.DeleteSlot(c.Context(), slotID, actorFromCtx(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListAppointments GET /api/advisor/appointments
func (h *AdvisorHandler) ListAppointments(c *fiber.Ctx) error {
	appointments, err := h.advisors.ListAppointments(c.Context(), actorFromCtx(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"appointments": appointments})
}

// Approve POST /api/advisor/appointments/:id/approve
func (h *AdvisorHandler) Approve(c *fiber.Ctx) error {
	appointmentID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.lifecycle.Approve(c.Context(), appointmentID, actorFromCtx(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Decline POST /api/advisor/appointments/:id/decline
func (h *AdvisorHandler) Decline(c *fiber.Ctx) error {
	appointmentID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.lifecycle.Decline(c.Context(), appointmentID, actorFromCtx(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type completeRequest struct {
	Note string `json:"note"`
}

// Complete POST /api/advisor/appointments/:id/complete
func (h *AdvisorHandler) Complete(c *fiber.Ctx) error {
	appointmentID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req completeRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, service.ErrInvalidInput)
	}

	if err := h.lifecycle.Complete(c.Context(), appointmentID, actorFromCtx(c), req.Note); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type minuteRequest struct {
	Body string `json:"body"`
}

// SaveMinute PUT /api/advisor/appointments/:id/minute
func (h *AdvisorHandler) SaveMinute(c *fiber.Ctx) error {
	appointmentID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req minuteRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, service.ErrInvalidInput)
	}

	minute, err := h.advisors.SaveMinute(c.Context(), appointmentID, actorFromCtx(c), req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"minute": minute})
}

// GetMinute GET /api/advisor/appointments/:id/minute
func (h *AdvisorHandler) GetMinute(c *fiber.Ctx) error {
	appointmentID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	minute, err := h.advisors.GetMinute(c.Context(), appointmentID, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"minute": minute})
}

// ListMinutes GET /api/advisor/minutes
func (h *AdvisorHandler) ListMinutes(c *fiber.Ctx) error {
	minutes, err := h.advisors.ListMinutes(c.Context(), actorFromCtx(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"minutes": minutes})
}

// parseRange читает границы периода; по умолчанию ближайшие 4 недели
func parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	from := time.Now()
	to := from.AddDate(0, 0, 28)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, service.ErrInvalidInput
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, service.ErrInvalidInput
		}
		to = parsed
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, service.ErrInvalidInput
	}

	return from, to, nil
}
