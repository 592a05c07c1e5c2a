package controller

import (
	"github.com/5h444n/cams/internal/service"
	"github.com/gofiber/fiber/v2"
)

// StudentHandler операции студента: поиск слотов, бронирование, очередь ожидания
type StudentHandler struct {
	students  *service.StudentService
	lifecycle *service.LifecycleService
	waitlist  *service.WaitlistService
}

func NewStudentHandler(
	students *service.StudentService,
	lifecycle *service.LifecycleService,
	waitlist *service.WaitlistService,
) *StudentHandler {
	return &StudentHandler{
		students:  students,
		lifecycle: lifecycle,
		waitlist:  waitlist,
	}
}

// ListOpenSlots GET /api/slots?advisor_id=
func (h *StudentHandler) ListOpenSlots(c *fiber.Ctx) error {
	var advisorID *int64
	if raw := c.QueryInt("advisor_id"); raw > 0 {
		id := int64(raw)
		advisorID = &id
	}

	slots, err := h.students.ListOpenSlots(c.Context(), advisorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}

type bookRequest struct {
	Purpose string `json:"purpose"`
}

// Book POST /api/slots/:id/book
func (h *StudentHandler) Book(c *fiber.Ctx) error {
	slotID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req bookRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, service.ErrInvalidInput)
	}

	appointment, err := h.lifecycle.Book(c.Context(), slotID, actorFromCtx(c).ID, req.Purpose)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appointment": appointment})
}

// Cancel POST /api/appointments/:id/cancel
func (h *StudentHandler) Cancel(c *fiber.Ctx) error {
	appointmentID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.lifecycle.Cancel(c.Context(), appointmentID, actorFromCtx(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListAppointments GET /api/appointments
func (h *StudentHandler) ListAppointments(c *fiber.Ctx) error {
	appointments, err := h.students.ListAppointments(c.Context(), actorFromCtx(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"appointments": appointments})
}

// JoinWaitlist POST /api/slots/:id/waitlist
func (h *StudentHandler) JoinWaitlist(c *fiber.Ctx) error {
	slotID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	entry, err := h.waitlist.Join(c.Context(), slotID, actorFromCtx(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": entry})
}

// LeaveWaitlist DELETE /api/slots/:id/waitlist
func (h *StudentHandler) LeaveWaitlist(c *fiber.Ctx) error {
	slotID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.waitlist.Leave(c.Context(), slotID, actorFromCtx(c).ID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListWaitlist GET /api/waitlist
func (h *StudentHandler) ListWaitlist(c *fiber.Ctx) error {
	entries, err := h.waitlist.ListByStudent(c.Context(), actorFromCtx(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}
