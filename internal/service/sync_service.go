package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/events"
	"github.com/sbhdesk/complaint-engine/internal/repository"
)

// SyncService propagates ticket status changes to the secondary
// ledgers that mirror it, keeping cross-view displays consistent.
// Registered last, after scoring and fan-out; purely best-effort.
type SyncService struct {
	ledgers repository.LedgerRepository
	logger  *zap.Logger
}

// NewSyncService constructs the service.
func NewSyncService(ledgers repository.LedgerRepository, logger *zap.Logger) *SyncService {
	return &SyncService{ledgers: ledgers, logger: logger}
}

// Register subscribes the propagation handler to every
// status-changing event.
func (s *SyncService) Register(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventTicketClosed,
		events.EventTicketExtended,
		events.EventTicketTransferred,
		events.EventTicketReopened,
		events.EventStatusChanged,
	} {
		dispatcher.Subscribe(eventType, s.handle)
	}
}

func (s *SyncService) handle(ctx context.Context, event events.Event) error {
	status, ok := statusFromPayload(event.Payload)
	if !ok {
		return nil
	}
	if err := s.ledgers.SyncTicketStatus(ctx, event.TicketID, status); err != nil {
		// The primary write already succeeded; log and move on.
		s.logger.Warn("ledger status sync failed",
			zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
	return nil
}

func statusFromPayload(payload any) (domain.TicketStatus, bool) {
	switch p := payload.(type) {
	case events.TicketClosedPayload:
		return p.Ticket.Status, true
	case events.TicketExtendedPayload:
		return p.Ticket.Status, true
	case events.TicketTransferredPayload:
		return p.Ticket.Status, true
	case events.TicketReopenedPayload:
		return p.Ticket.Status, true
	case events.StatusChangedPayload:
		return p.NewStatus, true
	default:
		return "", false
	}
}
