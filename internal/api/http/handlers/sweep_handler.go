package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sbhdesk/complaint-engine/internal/api/dto"
	"github.com/sbhdesk/complaint-engine/internal/service"
)

// SweepHandler triggers the scheduled sweeps on demand. Routes are
// gated to administrative roles.
type SweepHandler struct {
	delay  *service.DelayService
	notify *service.NotifyService
}

// NewSweepHandler constructs handler.
func NewSweepHandler(delay *service.DelayService, notify *service.NotifyService) *SweepHandler {
	return &SweepHandler{delay: delay, notify: notify}
}

// RunDelay POST /admin/sweeps/delay.
func (h *SweepHandler) RunDelay(c *fiber.Ctx) error {
	now := time.Now()
	if err := h.delay.RunDelaySweep(c.UserContext(), now); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SweepResponse{Sweep: "delay", StartedAt: now}})
}

// RunReminder POST /admin/sweeps/reminder.
func (h *SweepHandler) RunReminder(c *fiber.Ctx) error {
	now := time.Now()
	if err := h.notify.RunReminderSweep(c.UserContext(), now); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SweepResponse{Sweep: "reminder", StartedAt: now}})
}
