package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/events"
)

type sentMessage struct {
	phone string
	text  string
}

// recordingGateway captures sends instead of hitting the wire.
type recordingGateway struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (g *recordingGateway) Send(ctx context.Context, phone, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentMessage{phone: phone, text: text})
	return nil
}

func (g *recordingGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage{}, g.sent...)
}

func (g *recordingGateway) phones() []string {
	phones := make([]string, 0)
	for _, msg := range g.messages() {
		phones = append(phones, msg.phone)
	}
	return phones
}

func newNotifyFixture(t *testing.T) (*fixture, *NotifyService, *recordingGateway) {
	t.Helper()
	f := newFixture(t)
	gw := &recordingGateway{}
	svc := NewNotifyService(NotifyDependencies{
		StaffRepo:       f.staff,
		LedgerRepo:      f.ledgers,
		Gateway:         gw,
		Metrics:         f.metrics,
		Logger:          f.logger,
		Pacing:          0,
		EscalationName:  "Commissioner",
		EscalationPhone: "900",
	})
	return f, svc, gw
}

func seedDirectory(t *testing.T, f *fixture) {
	t.Helper()
	f.seedStaff(t, domain.StaffMember{Username: "alice", Phone: "111", Role: domain.StaffRoleStaff, Department: "Roads", Active: true})
	f.seedStaff(t, domain.StaffMember{Username: "bob", Phone: "222", Role: domain.StaffRoleStaff, Department: "Roads", Active: true})
	f.seedStaff(t, domain.StaffMember{Username: "carol", Phone: "333", Role: domain.StaffRoleStaff, Department: "Roads", Active: false})
	f.seedStaff(t, domain.StaffMember{Username: "dave", Phone: "", Role: domain.StaffRoleStaff, Department: "Roads", Active: true})
	f.seedStaff(t, domain.StaffMember{Username: "root", Phone: "444", Role: domain.StaffRoleSuperAdmin, Department: "HQ", Active: true})
}

func TestRegisteredNotifiesReporterAndDepartment(t *testing.T) {
	f, svc, gw := newNotifyFixture(t)
	seedDirectory(t, f)

	err := svc.handleRegistered(context.Background(), events.Event{
		Type: events.EventTicketRegistered,
		Payload: events.TicketRegisteredPayload{Ticket: domain.Ticket{
			ID: "SBH00001", Department: "Roads", ReportedBy: "alice", Description: "Pothole on main street",
		}},
	})
	if err != nil {
		t.Fatalf("handleRegistered: %v", err)
	}

	phones := gw.phones()
	// Personal confirmation first, then the blast: bob plus the super
	// admin. The reporter, inactive and phoneless staff are skipped.
	if len(phones) != 3 {
		t.Fatalf("sent to %v, want 3 messages", phones)
	}
	if phones[0] != "111" {
		t.Fatalf("first message must go to the reporter, got %v", phones)
	}
	rest := map[string]bool{phones[1]: true, phones[2]: true}
	if !rest["222"] || !rest["444"] {
		t.Fatalf("blast recipients = %v, want bob and the super admin", phones[1:])
	}
}

func TestClosedNotifiesReporterOnly(t *testing.T) {
	f, svc, gw := newNotifyFixture(t)
	seedDirectory(t, f)

	err := svc.handleClosed(context.Background(), events.Event{
		Type: events.EventTicketClosed,
		Payload: events.TicketClosedPayload{Ticket: domain.Ticket{
			ID: "SBH00001", ReportedBy: "alice", ResolvedBy: "bob",
		}},
	})
	if err != nil {
		t.Fatalf("handleClosed: %v", err)
	}
	msgs := gw.messages()
	if len(msgs) != 1 || msgs[0].phone != "111" {
		t.Fatalf("messages = %+v", msgs)
	}
	if !strings.Contains(msgs[0].text, "RESOLVED") {
		t.Fatalf("text = %q", msgs[0].text)
	}
}

func TestForcedCloseUsesForceLabel(t *testing.T) {
	f, svc, gw := newNotifyFixture(t)
	seedDirectory(t, f)

	_ = svc.handleClosed(context.Background(), events.Event{
		Payload: events.TicketClosedPayload{
			Ticket: domain.Ticket{ID: "SBH00001", ReportedBy: "alice", ResolvedBy: "root"},
			Forced: true,
		},
	})
	msgs := gw.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].text, "FORCE CLOSED") {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestReopenedAlertsLastCloserAndEscalation(t *testing.T) {
	f, svc, gw := newNotifyFixture(t)
	seedDirectory(t, f)

	err := svc.handleReopened(context.Background(), events.Event{
		Actor: "alice",
		Payload: events.TicketReopenedPayload{
			Ticket:     domain.Ticket{ID: "SBH00001"},
			LastCloser: "bob",
		},
	})
	if err != nil {
		t.Fatalf("handleReopened: %v", err)
	}
	phones := gw.phones()
	if len(phones) != 2 || phones[0] != "222" || phones[1] != "900" {
		t.Fatalf("phones = %v, want last closer then escalation contact", phones)
	}
}

func TestBoostExcludesTriggerAndSuperAdmins(t *testing.T) {
	f, svc, gw := newNotifyFixture(t)
	seedDirectory(t, f)

	err := svc.handleBoosted(context.Background(), events.Event{
		Payload: events.PriorityBoostPayload{
			Ticket:      domain.Ticket{ID: "SBH00001", Department: "Roads"},
			TriggeredBy: "alice",
		},
	})
	if err != nil {
		t.Fatalf("handleBoosted: %v", err)
	}
	phones := gw.phones()
	if len(phones) != 1 || phones[0] != "222" {
		t.Fatalf("phones = %v, want only bob", phones)
	}
}

func TestReminderSweepMarksNotified(t *testing.T) {
	f, svc, gw := newNotifyFixture(t)
	seedDirectory(t, f)
	ctx := context.Background()

	if err := f.ledgers.AppendDelayedCase(ctx, domain.DelayedCaseEntry{
		TicketID: "SBH00042", Department: "Roads", DetectedAt: "2026-02-09",
	}); err != nil {
		t.Fatalf("seed delayed case: %v", err)
	}

	if err := svc.RunReminderSweep(ctx, time.Now()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(gw.messages()) == 0 {
		t.Fatalf("reminder sweep sent nothing")
	}
	pending, _ := f.ledgers.ListUnnotifiedDelayedCases(ctx)
	if len(pending) != 0 {
		t.Fatalf("case not marked notified: %+v", pending)
	}

	// A second run finds nothing left to do.
	before := len(gw.messages())
	if err := svc.RunReminderSweep(ctx, time.Now()); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(gw.messages()) != before {
		t.Fatalf("second sweep re-sent reminders")
	}
}

func TestDepartmentRecipientsDeduplicates(t *testing.T) {
	f, svc, _ := newNotifyFixture(t)
	seedDirectory(t, f)
	// The super admin also appears as department staff under a
	// different spelling of the same username.
	f.seedStaff(t, domain.StaffMember{Username: "Root", Phone: "444", Role: domain.StaffRoleStaff, Department: "Roads", Active: true})

	recipients := svc.departmentRecipients(context.Background(), "Roads", true)
	seen := map[string]int{}
	for _, r := range recipients {
		seen[strings.ToLower(r.username)]++
	}
	if seen["root"] != 1 {
		t.Fatalf("root appeared %d times: %+v", seen["root"], recipients)
	}
}
