package domain

import "strings"

// TicketStatus enumerates lifecycle states for complaint tickets.
// Values are case-preserved on write; matching is case-insensitive.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "Open"
	TicketStatusClosed      TicketStatus = "Closed"
	TicketStatusResolved    TicketStatus = "Resolved"
	TicketStatusSolved      TicketStatus = "Solved"
	TicketStatusTransferred TicketStatus = "Transferred"
	TicketStatusExtend      TicketStatus = "Extend"
	TicketStatusForceClose  TicketStatus = "Force Close"
	TicketStatusDelayed     TicketStatus = "Delayed"
)

var knownStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusClosed,
	TicketStatusResolved,
	TicketStatusSolved,
	TicketStatusTransferred,
	TicketStatusExtend,
	TicketStatusForceClose,
	TicketStatusDelayed,
}

// NormalizeStatus maps case-insensitive input onto the canonical
// spelling. Unknown statuses pass through verbatim.
func NormalizeStatus(raw string) TicketStatus {
	trimmed := strings.TrimSpace(raw)
	for _, status := range knownStatuses {
		if strings.EqualFold(trimmed, string(status)) {
			return status
		}
	}
	return TicketStatus(trimmed)
}

// closedStatuses are terminal-for-reporting states. Tickets in these
// states are skipped by the delay sweep and count as solved work.
var closedStatuses = map[string]struct{}{
	strings.ToLower(string(TicketStatusClosed)):     {},
	strings.ToLower(string(TicketStatusResolved)):   {},
	strings.ToLower(string(TicketStatusSolved)):     {},
	strings.ToLower(string(TicketStatusForceClose)): {},
}

// IsClosedStatus reports whether the status belongs to the closed set.
func IsClosedStatus(status TicketStatus) bool {
	_, ok := closedStatuses[strings.ToLower(strings.TrimSpace(string(status)))]
	return ok
}

// Ticket is the aggregate for a tracked complaint. Date fields hold
// raw sheet values; use the dates helpers to interpret them so that
// malformed values degrade to "absent" instead of failing.
type Ticket struct {
	RowID        int64
	Rev          int64
	ID           string
	Status       TicketStatus
	Department   string
	Description  string
	ReportedBy   string
	ResolvedBy   string
	Unit         string
	Remark       string
	RegisteredAt string
	TargetDate   string
	ResolvedAt   string
	ReopenedAt   string
	DelayFlag    bool
	Rating       int
	History      string
}

// IsClosed reports whether the ticket currently sits in a closed state.
func (t *Ticket) IsClosed() bool {
	return IsClosedStatus(t.Status)
}

// DelayReference returns the raw date the delay sweep compares
// against: the target date when one is set, otherwise registration.
func (t *Ticket) DelayReference() string {
	if HasDate(t.TargetDate) {
		return t.TargetDate
	}
	return t.RegisteredAt
}
