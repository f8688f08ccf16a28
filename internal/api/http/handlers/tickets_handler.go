package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sbhdesk/complaint-engine/internal/api/dto"
	"github.com/sbhdesk/complaint-engine/internal/auth"
	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/service"
	apperrors "github.com/sbhdesk/complaint-engine/pkg/util"
)

// TicketsHandler manages complaint ticket endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	transitions *service.TransitionService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, transitions *service.TransitionService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, transitions: transitions}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Department) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("department, description required", nil)
	}

	input := service.TicketCreateInput{
		Department:  req.Department,
		Description: req.Description,
		Unit:        req.Unit,
		Remark:      req.Remark,
		TargetDate:  req.TargetDate,
	}
	ticket, err := h.tickets.Create(c.UserContext(), principal, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	page, err := h.tickets.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketSummary(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.GetByID(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Transition POST /tickets/:id/transition.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	action, err := parseAction(req.Action)
	if err != nil {
		return err
	}
	if action == service.ActionForceClose && !principal.Role.IsAdministrative() {
		return apperrors.NewUnauthorized("force close requires an administrative role")
	}
	params := service.TransitionParams{
		Remark:       req.Remark,
		TargetDate:   req.TargetDate,
		Rating:       req.Rating,
		ToDepartment: req.ToDepartment,
		NewAssignee:  req.NewAssignee,
		Status:       req.Status,
	}
	ticket, err := h.transitions.ApplyTransition(c.UserContext(), c.Params("id"), action, principal.Username, params)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Boost POST /tickets/:id/boost.
func (h *TicketsHandler) Boost(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.transitions.BoostPriority(c.UserContext(), c.Params("id"), principal.Username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Dashboard GET /tickets/dashboard.
func (h *TicketsHandler) Dashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	counts, err := h.tickets.Dashboard(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Open:        counts.Open,
		Solved:      counts.Solved,
		Transferred: counts.Transferred,
		Extended:    counts.Extended,
		Delayed:     counts.Delayed,
	}})
}

func parseAction(raw string) (service.TransitionAction, error) {
	switch service.TransitionAction(strings.ToLower(strings.TrimSpace(raw))) {
	case service.ActionClose:
		return service.ActionClose, nil
	case service.ActionForceClose:
		return service.ActionForceClose, nil
	case service.ActionExtend:
		return service.ActionExtend, nil
	case service.ActionRate:
		return service.ActionRate, nil
	case service.ActionTransfer:
		return service.ActionTransfer, nil
	case service.ActionReopen:
		return service.ActionReopen, nil
	case service.ActionStatus:
		return service.ActionStatus, nil
	default:
		return "", apperrors.NewValidationError("unknown action", map[string]any{"action": raw})
	}
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	return service.TicketListFilter{
		Department: c.Query("department"),
		Status:     c.Query("status"),
		Page:       parseInt(c.Query("page"), 1),
		PageSize:   parseInt(c.Query("page_size"), 20),
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		Status:       string(ticket.Status),
		Department:   ticket.Department,
		Description:  ticket.Description,
		ReportedBy:   ticket.ReportedBy,
		ResolvedBy:   ticket.ResolvedBy,
		Unit:         ticket.Unit,
		RegisteredAt: ticket.RegisteredAt,
		TargetDate:   ticket.TargetDate,
		Delayed:      ticket.DelayFlag,
		Rating:       ticket.Rating,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	history := []string{}
	if ticket.History != "" {
		history = strings.Split(ticket.History, "\n")
	}
	return dto.TicketDetailResponse{
		TicketSummary: ticketSummary(ticket),
		Remark:        ticket.Remark,
		ResolvedAt:    ticket.ResolvedAt,
		ReopenedAt:    ticket.ReopenedAt,
		History:       history,
	}
}
