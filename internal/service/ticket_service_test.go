package service

import (
	"context"
	"strings"
	"testing"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/events"
)

func newTicketService(f *fixture) *TicketService {
	return NewTicketService(f.tickets, f.dispatcher, f.logger)
}

func staffMember(username, department string) *domain.StaffMember {
	return &domain.StaffMember{Username: username, Role: domain.StaffRoleStaff, Department: department, Active: true}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	f := newFixture(t)
	svc := newTicketService(f)
	log := f.captureEvents(events.EventTicketRegistered)
	ctx := context.Background()
	actor := staffMember("alice", "Roads")

	first, err := svc.Create(ctx, actor, TicketCreateInput{Department: "Roads", Description: "Pothole"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, actor, TicketCreateInput{Department: "Roads", Description: "Streetlight out"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID != "SBH00001" || second.ID != "SBH00002" {
		t.Fatalf("ids = %q, %q", first.ID, second.ID)
	}
	if first.Status != domain.TicketStatusOpen || first.ReportedBy != "alice" {
		t.Fatalf("ticket = %+v", first)
	}
	if !strings.Contains(first.History, "Registered by alice") {
		t.Fatalf("history = %q", first.History)
	}
	if len(log.all()) != 2 {
		t.Fatalf("published %d registered events, want 2", len(log.all()))
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := newTicketService(f)
	ctx := context.Background()
	actor := staffMember("alice", "Roads")

	_, err := svc.Create(ctx, actor, TicketCreateInput{Description: "no department"})
	wantCode(t, err, "VALIDATION_FAILED")
	_, err = svc.Create(ctx, actor, TicketCreateInput{Department: "Roads"})
	wantCode(t, err, "VALIDATION_FAILED")
	_, err = svc.Create(ctx, actor, TicketCreateInput{Department: "Roads", Description: "x", TargetDate: "whenever"})
	wantCode(t, err, "VALIDATION_FAILED")
}

func TestListAppliesVisibilityBeforeFilters(t *testing.T) {
	f := newFixture(t)
	svc := newTicketService(f)
	ctx := context.Background()

	f.seedTicket(t, domain.Ticket{ID: "SBH00001", Status: domain.TicketStatusOpen, Department: "Roads"})
	f.seedTicket(t, domain.Ticket{ID: "SBH00002", Status: domain.TicketStatusOpen, Department: "Water"})
	f.seedTicket(t, domain.Ticket{ID: "SBH00003", Status: domain.TicketStatusClosed, Department: "Water", ReportedBy: "carol"})

	// Admin sees all of Water.
	admin := &domain.StaffMember{Username: "root", Role: domain.StaffRoleAdmin, Department: "HQ"}
	page, err := svc.List(ctx, admin, TicketListFilter{Department: "Water"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("admin total = %d, want 2", page.Total)
	}

	// A Roads staffer filtering on the foreign Water department only
	// gets what they personally reported there.
	carol := staffMember("carol", "Roads")
	page, err = svc.List(ctx, carol, TicketListFilter{Department: "Water"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != "SBH00003" {
		t.Fatalf("carol page = %+v", page)
	}

	// Status narrows too.
	page, err = svc.List(ctx, admin, TicketListFilter{Status: "closed"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != "SBH00003" {
		t.Fatalf("status filter page = %+v", page)
	}
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t)
	svc := newTicketService(f)
	ctx := context.Background()
	for _, id := range []string{"SBH00001", "SBH00002", "SBH00003"} {
		f.seedTicket(t, domain.Ticket{ID: id, Status: domain.TicketStatusOpen, Department: "Roads"})
	}
	viewer := staffMember("alice", "Roads")

	page, err := svc.List(ctx, viewer, TicketListFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 1 || page.Items[0].ID != "SBH00003" {
		t.Fatalf("page = %+v", page)
	}

	// Pages past the end come back empty, not failing.
	page, err = svc.List(ctx, viewer, TicketListFilter{Page: 9, PageSize: 2})
	if err != nil || len(page.Items) != 0 {
		t.Fatalf("far page = %+v, %v", page, err)
	}
}

func TestGetByIDEnforcesVisibility(t *testing.T) {
	f := newFixture(t)
	svc := newTicketService(f)
	ctx := context.Background()
	f.seedTicket(t, domain.Ticket{ID: "SBH00001", Status: domain.TicketStatusOpen, Department: "Water"})

	_, err := svc.GetByID(ctx, staffMember("alice", "Roads"), "SBH00001")
	wantCode(t, err, "FORBIDDEN")

	_, err = svc.GetByID(ctx, staffMember("alice", "Water"), "SBH00001")
	if err != nil {
		t.Fatalf("same-department read: %v", err)
	}

	_, err = svc.GetByID(ctx, staffMember("alice", "Water"), "SBH09999")
	wantCode(t, err, "NOT_FOUND")
}

func TestDashboardCounts(t *testing.T) {
	f := newFixture(t)
	svc := newTicketService(f)
	ctx := context.Background()

	f.seedTicket(t, domain.Ticket{ID: "SBH00001", Status: domain.TicketStatusOpen, Department: "Roads"})
	f.seedTicket(t, domain.Ticket{ID: "SBH00002", Status: domain.TicketStatusClosed, Department: "Roads"})
	f.seedTicket(t, domain.Ticket{ID: "SBH00003", Status: domain.TicketStatusTransferred, Department: "Roads"})
	f.seedTicket(t, domain.Ticket{ID: "SBH00004", Status: domain.TicketStatusExtend, Department: "Roads", DelayFlag: true})

	counts, err := svc.Dashboard(ctx, staffMember("alice", "Roads"))
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if counts.Open != 1 || counts.Solved != 1 || counts.Transferred != 1 || counts.Extended != 1 || counts.Delayed != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}
