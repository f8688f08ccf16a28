package events

import (
	"time"

	"github.com/sbhdesk/complaint-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketRegistered  EventType = "ticket_registered"
	EventTicketClosed      EventType = "ticket_closed"
	EventTicketExtended    EventType = "ticket_extended"
	EventTicketTransferred EventType = "ticket_transferred"
	EventTicketReopened    EventType = "ticket_reopened"
	EventTicketRated       EventType = "ticket_rated"
	EventStatusChanged     EventType = "ticket_status_changed"
	EventPriorityBoosted   EventType = "ticket_priority_boosted"
)

// Event is a post-commit notice emitted after the primary ticket
// write has succeeded. Handlers are best-effort.
type Event struct {
	ID        string
	Type      EventType
	TicketID  string
	Actor     string
	Timestamp time.Time
	Payload   any
}

// TicketRegisteredPayload payload.
type TicketRegisteredPayload struct {
	Ticket domain.Ticket
}

// TicketClosedPayload payload. Forced marks a force-close.
type TicketClosedPayload struct {
	Ticket domain.Ticket
	Forced bool
}

// TicketExtendedPayload payload.
type TicketExtendedPayload struct {
	Ticket    domain.Ticket
	OldTarget string
	NewTarget string
	Reason    string
	DiffDays  int
}

// TicketTransferredPayload payload.
type TicketTransferredPayload struct {
	Ticket         domain.Ticket
	FromDepartment string
}

// TicketReopenedPayload payload. LastCloser is whoever most recently
// closed the ticket before this re-open.
type TicketReopenedPayload struct {
	Ticket     domain.Ticket
	LastCloser string
}

// TicketRatedPayload payload. Resolver is the staff member whose
// performance record must be recomputed.
type TicketRatedPayload struct {
	Ticket   domain.Ticket
	Rating   int
	Resolver string
}

// StatusChangedPayload payload for verbatim status updates.
type StatusChangedPayload struct {
	Ticket    domain.Ticket
	OldStatus domain.TicketStatus
	NewStatus domain.TicketStatus
}

// PriorityBoostPayload payload. TriggeredBy is excluded from the
// resulting department blast.
type PriorityBoostPayload struct {
	Ticket      domain.Ticket
	TriggeredBy string
}
