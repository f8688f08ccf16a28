package service

import (
	"testing"

	"github.com/sbhdesk/complaint-engine/internal/domain"
)

func TestIsVisible(t *testing.T) {
	ticket := domain.Ticket{
		ID: "SBH00001", Department: "Roads",
		ReportedBy: "alice", ResolvedBy: "bob",
	}
	cases := []struct {
		name   string
		viewer *domain.StaffMember
		want   bool
	}{
		{"nil viewer", nil, false},
		{"admin sees everything", &domain.StaffMember{Username: "root", Role: domain.StaffRoleAdmin, Department: "HQ"}, true},
		{"super admin sees everything", &domain.StaffMember{Username: "boss", Role: domain.StaffRoleSuperAdmin, Department: "HQ"}, true},
		{"same department", &domain.StaffMember{Username: "carol", Role: domain.StaffRoleStaff, Department: "roads"}, true},
		{"reporter from elsewhere", &domain.StaffMember{Username: "ALICE", Role: domain.StaffRoleStaff, Department: "Water"}, true},
		{"resolver from elsewhere", &domain.StaffMember{Username: "bob", Role: domain.StaffRoleStaff, Department: "Water"}, true},
		{"unrelated staff", &domain.StaffMember{Username: "mallory", Role: domain.StaffRoleStaff, Department: "Water"}, false},
	}
	for _, tc := range cases {
		if got := IsVisible(&ticket, tc.viewer); got != tc.want {
			t.Fatalf("%s: IsVisible = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestVisibleTicketsFilters(t *testing.T) {
	tickets := []domain.Ticket{
		{ID: "SBH00001", Department: "Roads"},
		{ID: "SBH00002", Department: "Water"},
		{ID: "SBH00003", Department: "Water", ReportedBy: "carol"},
	}
	viewer := &domain.StaffMember{Username: "carol", Role: domain.StaffRoleStaff, Department: "Roads"}

	visible := visibleTickets(tickets, viewer)
	if len(visible) != 2 {
		t.Fatalf("visible = %d tickets, want 2", len(visible))
	}
	if visible[0].ID != "SBH00001" || visible[1].ID != "SBH00003" {
		t.Fatalf("visible = %+v", visible)
	}
}
