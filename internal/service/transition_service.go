package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/events"
	"github.com/sbhdesk/complaint-engine/internal/repository"
	apperrors "github.com/sbhdesk/complaint-engine/pkg/util"
)

// TransitionAction enumerates the state-machine actions.
type TransitionAction string

const (
	ActionClose      TransitionAction = "close"
	ActionForceClose TransitionAction = "force_close"
	ActionExtend     TransitionAction = "extend"
	ActionRate       TransitionAction = "rate"
	ActionTransfer   TransitionAction = "transfer"
	ActionReopen     TransitionAction = "reopen"
	ActionStatus     TransitionAction = "status"
)

// TransitionParams carries per-action inputs.
type TransitionParams struct {
	Remark       string
	TargetDate   string
	Rating       int
	ToDepartment string
	NewAssignee  string
	Status       string
}

// TransitionService validates and applies ticket status transitions.
// Side effects are strictly ordered: row mutation, history append,
// then post-commit events (scoring, fan-out, ledger sync). A failure
// past the history append never rolls the mutation back.
type TransitionService struct {
	tickets    repository.TicketRepository
	staff      repository.StaffRepository
	ledgers    repository.LedgerRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TransitionDependencies bundles collaborators for the service.
type TransitionDependencies struct {
	TicketRepo repository.TicketRepository
	StaffRepo  repository.StaffRepository
	LedgerRepo repository.LedgerRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTransitionService constructs the service.
func NewTransitionService(deps TransitionDependencies) *TransitionService {
	return &TransitionService{
		tickets:    deps.TicketRepo,
		staff:      deps.StaffRepo,
		ledgers:    deps.LedgerRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ApplyTransition loads the ticket and applies one action on behalf
// of actor.
func (s *TransitionService) ApplyTransition(ctx context.Context, ticketID string, action TransitionAction, actor string, params TransitionParams) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err, ticketID)
	}

	switch action {
	case ActionClose:
		return s.close(ctx, ticket, actor, params, false)
	case ActionForceClose:
		return s.close(ctx, ticket, actor, params, true)
	case ActionExtend:
		return s.extend(ctx, ticket, actor, params)
	case ActionRate:
		return s.rate(ctx, ticket, actor, params)
	case ActionTransfer:
		return s.transfer(ctx, ticket, actor, params)
	case ActionReopen:
		return s.reopen(ctx, ticket, actor)
	case ActionStatus:
		return s.setStatus(ctx, ticket, actor, params)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown action %q", action), nil)
	}
}

func (s *TransitionService) close(ctx context.Context, ticket *domain.Ticket, actor string, params TransitionParams, forced bool) (*domain.Ticket, error) {
	if forced {
		member, err := s.staff.GetByUsername(ctx, actor)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"username": actor})
		}
		if err != nil {
			return nil, apperrors.NewExternalIO(err)
		}
		if !member.Role.IsAdministrative() {
			return nil, apperrors.NewUnauthorized("force close requires an administrative role")
		}
	}

	now := time.Now()
	cells := map[string]string{
		repository.FieldStatus:     string(domain.TicketStatusClosed),
		repository.FieldResolvedBy: actor,
		repository.FieldDelayFlag:  "",
	}
	if strings.TrimSpace(params.Remark) != "" {
		cells[repository.FieldRemark] = strings.TrimSpace(params.Remark)
	}
	// resolvedAt is written once per lifetime; a re-close after a
	// re-open keeps the originally recorded timestamp.
	if !domain.HasDate(ticket.ResolvedAt) {
		cells[repository.FieldResolvedAt] = domain.FormatDateTime(now)
	}

	if err := s.tickets.UpdateFields(ctx, ticket, cells); err != nil {
		return nil, mapTicketErr(err, ticket.ID)
	}
	ticket.Status = domain.TicketStatusClosed
	ticket.ResolvedBy = actor
	ticket.DelayFlag = false
	if v, ok := cells[repository.FieldResolvedAt]; ok {
		ticket.ResolvedAt = v
	}
	if v, ok := cells[repository.FieldRemark]; ok {
		ticket.Remark = v
	}

	label := "CLOSED"
	if forced {
		label = "FORCE CLOSED"
	}
	if err := s.appendHistory(ctx, ticket, now, label+" by "+actor); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketClosedPayload{Ticket: *ticket, Forced: forced},
	})
	return ticket, nil
}

func (s *TransitionService) extend(ctx context.Context, ticket *domain.Ticket, actor string, params TransitionParams) (*domain.Ticket, error) {
	newTarget, ok := domain.ParseDate(params.TargetDate)
	if !ok {
		return nil, apperrors.NewValidationError("a valid new target date is required", nil)
	}

	oldTargetRaw := ticket.TargetDate
	diffDays := 0
	if oldTarget, ok := domain.ParseDate(oldTargetRaw); ok {
		diffDays = domain.CeilDays(oldTarget, newTarget)
	} else {
		oldTargetRaw = "None"
	}

	now := time.Now()
	newTargetRaw := domain.FormatDate(newTarget)
	cells := map[string]string{
		repository.FieldStatus:     string(domain.TicketStatusExtend),
		repository.FieldTargetDate: newTargetRaw,
		repository.FieldDelayFlag:  "",
	}
	if err := s.tickets.UpdateFields(ctx, ticket, cells); err != nil {
		return nil, mapTicketErr(err, ticket.ID)
	}
	ticket.Status = domain.TicketStatusExtend
	ticket.TargetDate = newTargetRaw
	ticket.DelayFlag = false

	line := fmt.Sprintf("EXTENDED from %s to %s (%d days) by %s", oldTargetRaw, newTargetRaw, diffDays, actor)
	if err := s.appendHistory(ctx, ticket, now, line); err != nil {
		return nil, err
	}

	// Audit entry; best-effort like all secondary ledgers.
	if err := s.ledgers.AppendExtension(ctx, domain.ExtensionEntry{
		TicketID:  ticket.ID,
		OldTarget: oldTargetRaw,
		NewTarget: newTargetRaw,
		DiffDays:  diffDays,
		Reason:    strings.TrimSpace(params.Remark),
		Actor:     actor,
		Date:      domain.FormatDate(now),
	}); err != nil {
		s.logger.Warn("extension log append failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketExtended,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketExtendedPayload{
			Ticket:    *ticket,
			OldTarget: oldTargetRaw,
			NewTarget: newTargetRaw,
			Reason:    strings.TrimSpace(params.Remark),
			DiffDays:  diffDays,
		},
	})
	return ticket, nil
}

func (s *TransitionService) rate(ctx context.Context, ticket *domain.Ticket, actor string, params TransitionParams) (*domain.Ticket, error) {
	if !strings.EqualFold(actor, ticket.ReportedBy) {
		return nil, apperrors.NewUnauthorized("only the original reporter may rate")
	}
	if params.Rating < 1 || params.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}

	// The append-only ledger, not the overwritable ticket cell, is
	// the idempotency authority.
	rated, err := s.ledgers.HasRating(ctx, ticket.ID, actor)
	if err != nil {
		return nil, apperrors.NewExternalIO(err)
	}
	if rated {
		return nil, apperrors.NewAlreadyRated(ticket.ID)
	}

	now := time.Now()
	cells := map[string]string{
		repository.FieldRating: fmt.Sprintf("%d", params.Rating),
	}
	if err := s.tickets.UpdateFields(ctx, ticket, cells); err != nil {
		return nil, mapTicketErr(err, ticket.ID)
	}
	ticket.Rating = params.Rating

	if err := s.appendHistory(ctx, ticket, now, fmt.Sprintf("RATED %d/5 by %s", params.Rating, actor)); err != nil {
		return nil, err
	}

	if err := s.ledgers.AppendRating(ctx, domain.RatingEntry{
		TicketID:   ticket.ID,
		RatedBy:    actor,
		ResolvedBy: ticket.ResolvedBy,
		Rating:     params.Rating,
		RatedAt:    domain.FormatDateTime(now),
	}); err != nil {
		return nil, apperrors.NewExternalIO(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketRated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketRatedPayload{
			Ticket:   *ticket,
			Rating:   params.Rating,
			Resolver: ticket.ResolvedBy,
		},
	})
	return ticket, nil
}

func (s *TransitionService) transfer(ctx context.Context, ticket *domain.Ticket, actor string, params TransitionParams) (*domain.Ticket, error) {
	destination := strings.TrimSpace(params.ToDepartment)
	if destination == "" {
		return nil, apperrors.NewValidationError("destination department required", nil)
	}

	from := ticket.Department
	now := time.Now()
	cells := map[string]string{
		repository.FieldStatus:     string(domain.TicketStatusTransferred),
		repository.FieldDepartment: destination,
	}
	if assignee := strings.TrimSpace(params.NewAssignee); assignee != "" {
		cells[repository.FieldResolvedBy] = assignee
	}
	if err := s.tickets.UpdateFields(ctx, ticket, cells); err != nil {
		return nil, mapTicketErr(err, ticket.ID)
	}
	ticket.Status = domain.TicketStatusTransferred
	ticket.Department = destination
	if v, ok := cells[repository.FieldResolvedBy]; ok {
		ticket.ResolvedBy = v
	}

	line := fmt.Sprintf("TRANSFERRED from %s to %s by %s on %s at %s",
		from, destination, actor, domain.FormatDate(now), now.Format("15:04:05"))
	if err := s.appendHistory(ctx, ticket, now, line); err != nil {
		return nil, err
	}

	if err := s.ledgers.AppendTransfer(ctx, domain.TransferEntry{
		TicketID:       ticket.ID,
		FromDepartment: from,
		ToDepartment:   destination,
		Actor:          actor,
		Status:         ticket.Status,
		Date:           domain.FormatDate(now),
		Time:           now.Format("15:04:05"),
	}); err != nil {
		s.logger.Warn("transfer log append failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketTransferred,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketTransferredPayload{Ticket: *ticket, FromDepartment: from},
	})
	return ticket, nil
}

func (s *TransitionService) reopen(ctx context.Context, ticket *domain.Ticket, actor string) (*domain.Ticket, error) {
	if !ticket.IsClosed() {
		return nil, apperrors.NewValidationError("only closed tickets can be re-opened", nil)
	}

	lastCloser := ticket.ResolvedBy
	now := time.Now()
	// resolvedAt and resolvedBy stay stale until the next close
	// overwrites them.
	cells := map[string]string{
		repository.FieldStatus:     string(domain.TicketStatusOpen),
		repository.FieldReopenedAt: domain.FormatDateTime(now),
	}
	if err := s.tickets.UpdateFields(ctx, ticket, cells); err != nil {
		return nil, mapTicketErr(err, ticket.ID)
	}
	ticket.Status = domain.TicketStatusOpen
	ticket.ReopenedAt = cells[repository.FieldReopenedAt]

	if err := s.appendHistory(ctx, ticket, now, "RE-OPEN by "+actor); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketReopenedPayload{Ticket: *ticket, LastCloser: lastCloser},
	})
	return ticket, nil
}

func (s *TransitionService) setStatus(ctx context.Context, ticket *domain.Ticket, actor string, params TransitionParams) (*domain.Ticket, error) {
	if strings.TrimSpace(params.Status) == "" {
		return nil, apperrors.NewValidationError("status required", nil)
	}

	oldStatus := ticket.Status
	newStatus := domain.NormalizeStatus(params.Status)
	now := time.Now()
	if err := s.tickets.UpdateFields(ctx, ticket, map[string]string{
		repository.FieldStatus: string(newStatus),
	}); err != nil {
		return nil, mapTicketErr(err, ticket.ID)
	}
	ticket.Status = newStatus

	// History only records real changes; a Closed -> Open flip gets
	// the special RE-OPEN label.
	if !strings.EqualFold(string(oldStatus), string(newStatus)) {
		label := "STATUS " + string(newStatus)
		if domain.IsClosedStatus(oldStatus) && newStatus == domain.TicketStatusOpen {
			label = "RE-OPEN"
		}
		if err := s.appendHistory(ctx, ticket, now, label+" by "+actor); err != nil {
			return nil, err
		}
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.StatusChangedPayload{
			Ticket:    *ticket,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// BoostPriority is the administrative escalation: no status change,
// a logged notice plus a department blast excluding the admin who
// triggered it.
func (s *TransitionService) BoostPriority(ctx context.Context, ticketID, actor string) (*domain.Ticket, error) {
	member, err := s.staff.GetByUsername(ctx, actor)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"username": actor})
	}
	if err != nil {
		return nil, apperrors.NewExternalIO(err)
	}
	if !member.Role.IsAdministrative() {
		return nil, apperrors.NewUnauthorized("priority boost requires an administrative role")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err, ticketID)
	}

	if err := s.appendHistory(ctx, ticket, time.Now(), "PRIORITY BOOST by "+actor); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventPriorityBoosted,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.PriorityBoostPayload{Ticket: *ticket, TriggeredBy: actor},
	})
	return ticket, nil
}

func (s *TransitionService) appendHistory(ctx context.Context, ticket *domain.Ticket, now time.Time, line string) error {
	stamped := domain.FormatDateTime(now) + " - " + line
	if err := s.tickets.AppendHistory(ctx, ticket, stamped); err != nil {
		return apperrors.NewExternalIO(err)
	}
	return nil
}

func mapTicketErr(err error, ticketID string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict("ticket was modified concurrently, retry", map[string]any{"ticket_id": ticketID})
	default:
		return apperrors.NewExternalIO(err)
	}
}
