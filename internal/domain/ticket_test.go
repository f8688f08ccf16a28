package domain

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want TicketStatus
	}{
		{"open", TicketStatusOpen},
		{"CLOSED", TicketStatusClosed},
		{" force close ", TicketStatusForceClose},
		{"Solved", TicketStatusSolved},
		{"extend", TicketStatusExtend},
		{"In Review", TicketStatus("In Review")},
	}
	for _, tc := range cases {
		if got := NormalizeStatus(tc.raw); got != tc.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestIsClosedStatus(t *testing.T) {
	closed := []TicketStatus{TicketStatusClosed, TicketStatusResolved, TicketStatusSolved, TicketStatusForceClose, "closed", "force close"}
	for _, status := range closed {
		if !IsClosedStatus(status) {
			t.Fatalf("%q should be closed", status)
		}
	}
	open := []TicketStatus{TicketStatusOpen, TicketStatusTransferred, TicketStatusExtend, TicketStatusDelayed, ""}
	for _, status := range open {
		if IsClosedStatus(status) {
			t.Fatalf("%q should not be closed", status)
		}
	}
}

func TestDelayReference(t *testing.T) {
	ticket := Ticket{RegisteredAt: "2026-01-01 10:00:00", TargetDate: "2026-01-05"}
	if got := ticket.DelayReference(); got != "2026-01-05" {
		t.Fatalf("DelayReference = %q, want target date", got)
	}
	ticket.TargetDate = "None"
	if got := ticket.DelayReference(); got != "2026-01-01 10:00:00" {
		t.Fatalf("DelayReference = %q, want registration date", got)
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		raw  string
		want StaffRole
	}{
		{"admin", StaffRoleAdmin},
		{"Administrator", StaffRoleAdmin},
		{"super admin", StaffRoleSuperAdmin},
		{"SuperAdmin", StaffRoleSuperAdmin},
		{"staff", StaffRoleStaff},
		{"clerk", StaffRoleStaff},
		{"", StaffRoleStaff},
	}
	for _, tc := range cases {
		if got := NormalizeRole(tc.raw); got != tc.want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
	if StaffRoleStaff.IsAdministrative() {
		t.Fatalf("Staff must not be administrative")
	}
	if !StaffRoleAdmin.IsAdministrative() || !StaffRoleSuperAdmin.IsAdministrative() {
		t.Fatalf("Admin and Super Admin are administrative")
	}
}
