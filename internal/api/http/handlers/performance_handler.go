package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sbhdesk/complaint-engine/internal/api/dto"
	"github.com/sbhdesk/complaint-engine/internal/auth"
	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/service"
	apperrors "github.com/sbhdesk/complaint-engine/pkg/util"
)

// PerformanceHandler exposes derived staff score cards.
type PerformanceHandler struct {
	performance *service.PerformanceService
}

// NewPerformanceHandler constructs handler.
func NewPerformanceHandler(performance *service.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{performance: performance}
}

// Me GET /performance/me.
func (h *PerformanceHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return h.respond(c, principal.Username)
}

// Get GET /performance/:username. Staff may only read their own card.
func (h *PerformanceHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	username := c.Params("username")
	if !principal.Role.IsAdministrative() && username != principal.Username {
		return apperrors.NewForbidden("cannot view another member's performance")
	}
	return h.respond(c, username)
}

// Recompute POST /performance/:username/recompute.
func (h *PerformanceHandler) Recompute(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := h.performance.Recompute(c.UserContext(), username); err != nil {
		return err
	}
	return h.respond(c, username)
}

func (h *PerformanceHandler) respond(c *fiber.Ctx, username string) error {
	record, rank, err := h.performance.Get(c.UserContext(), username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": performanceResponse(record, rank)})
}

func performanceResponse(record *domain.StaffPerformanceRecord, rank int) dto.PerformanceResponse {
	return dto.PerformanceResponse{
		Username:        record.Username,
		SolvedCount:     record.SolvedCount,
		RatingCount:     record.RatingCount,
		AvgRating:       record.AvgRating,
		AvgSpeedHours:   record.AvgSpeedHours,
		SpeedScore:      record.SpeedScore,
		DelayCount:      record.DelayCount,
		DelayPenalty:    record.DelayPenalty,
		TotalCases:      record.TotalCases,
		RatingHistogram: record.RatingHistogram,
		EfficiencyScore: record.EfficiencyScore,
		Rank:            rank,
		ComputedAt:      record.ComputedAt,
	}
}
