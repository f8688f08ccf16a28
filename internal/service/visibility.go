package service

import (
	"strings"

	"github.com/sbhdesk/complaint-engine/internal/domain"
)

// IsVisible is the row-level access predicate applied before any
// ticket leaves a list, search or stats query. Administrative roles
// see everything; everyone else sees their department's tickets plus
// anything they personally reported or currently resolve.
func IsVisible(ticket *domain.Ticket, viewer *domain.StaffMember) bool {
	if viewer == nil {
		return false
	}
	if viewer.Role.IsAdministrative() {
		return true
	}
	if strings.EqualFold(ticket.Department, viewer.Department) {
		return true
	}
	if strings.EqualFold(ticket.ReportedBy, viewer.Username) {
		return true
	}
	return strings.EqualFold(ticket.ResolvedBy, viewer.Username)
}

// visibleTickets filters a slice down to what the viewer may see.
func visibleTickets(tickets []domain.Ticket, viewer *domain.StaffMember) []domain.Ticket {
	filtered := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if IsVisible(&tickets[i], viewer) {
			filtered = append(filtered, tickets[i])
		}
	}
	return filtered
}
