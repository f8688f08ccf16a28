package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/events"
	"github.com/sbhdesk/complaint-engine/internal/repository"
	apperrors "github.com/sbhdesk/complaint-engine/pkg/util"
)

// TicketService covers registration and the read side: listing,
// detail and dashboard aggregates, all under the visibility filter.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	return &TicketService{tickets: tickets, dispatcher: dispatcher, logger: logger}
}

// TicketCreateInput describes ticket registration payload.
type TicketCreateInput struct {
	Department  string
	Description string
	Unit        string
	Remark      string
	TargetDate  string
}

// TicketListFilter describes listing parameters. Department and
// Status narrow the visible set; they never widen it.
type TicketListFilter struct {
	Department string
	Status     string
	Page       int
	PageSize   int
}

// TicketPage is one page of visible tickets.
type TicketPage struct {
	Items    []domain.Ticket
	Total    int
	Page     int
	PageSize int
}

// DashboardCounts are the aggregate counters shown per viewer.
type DashboardCounts struct {
	Open        int
	Solved      int
	Transferred int
	Extended    int
	Delayed     int
}

// Create registers a new ticket with the next monotonic id.
func (s *TicketService) Create(ctx context.Context, actor *domain.StaffMember, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Department) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("department and description required", nil)
	}
	if input.TargetDate != "" {
		if _, ok := domain.ParseDate(input.TargetDate); !ok {
			return nil, apperrors.NewValidationError("target date is not a valid date", nil)
		}
	}

	id, err := s.tickets.NextID(ctx)
	if err != nil {
		return nil, apperrors.NewExternalIO(err)
	}
	now := time.Now()
	ticket := &domain.Ticket{
		ID:           id,
		Status:       domain.TicketStatusOpen,
		Department:   strings.TrimSpace(input.Department),
		Description:  strings.TrimSpace(input.Description),
		ReportedBy:   actor.Username,
		Unit:         strings.TrimSpace(input.Unit),
		Remark:       strings.TrimSpace(input.Remark),
		RegisteredAt: domain.FormatDateTime(now),
		TargetDate:   strings.TrimSpace(input.TargetDate),
		History:      domain.FormatDateTime(now) + " - Registered by " + actor.Username,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewExternalIO(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketRegistered,
		TicketID: ticket.ID,
		Actor:    actor.Username,
		Payload:  events.TicketRegisteredPayload{Ticket: *ticket},
	})
	return ticket, nil
}

// List returns one page of tickets the viewer may see. A non-admin
// requesting a foreign department naturally narrows to tickets they
// reported or resolve there, because the visibility predicate runs
// before the department filter.
func (s *TicketService) List(ctx context.Context, viewer *domain.StaffMember, filter TicketListFilter) (*TicketPage, error) {
	all, err := s.tickets.List(ctx)
	if err != nil {
		return nil, apperrors.NewExternalIO(err)
	}
	visible := visibleTickets(all, viewer)

	matched := make([]domain.Ticket, 0, len(visible))
	for _, ticket := range visible {
		if filter.Department != "" && !strings.EqualFold(ticket.Department, filter.Department) {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(string(ticket.Status), strings.TrimSpace(filter.Status)) {
			continue
		}
		matched = append(matched, ticket)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	return &TicketPage{
		Items:    matched[start:end],
		Total:    len(matched),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetByID fetches one ticket, enforcing visibility.
func (s *TicketService) GetByID(ctx context.Context, viewer *domain.StaffMember, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	if err != nil {
		return nil, apperrors.NewExternalIO(err)
	}
	if !IsVisible(ticket, viewer) {
		return nil, apperrors.NewForbidden("ticket not visible to viewer")
	}
	return ticket, nil
}

// Dashboard aggregates status counts over the viewer's visible set.
func (s *TicketService) Dashboard(ctx context.Context, viewer *domain.StaffMember) (*DashboardCounts, error) {
	all, err := s.tickets.List(ctx)
	if err != nil {
		return nil, apperrors.NewExternalIO(err)
	}
	counts := &DashboardCounts{}
	for _, ticket := range visibleTickets(all, viewer) {
		switch {
		case ticket.IsClosed():
			counts.Solved++
		case ticket.Status == domain.TicketStatusTransferred:
			counts.Transferred++
		case ticket.Status == domain.TicketStatusExtend:
			counts.Extended++
		default:
			counts.Open++
		}
		if ticket.DelayFlag || ticket.Status == domain.TicketStatusDelayed {
			counts.Delayed++
		}
	}
	return counts, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	publishEvent(ctx, s.dispatcher, event)
}
