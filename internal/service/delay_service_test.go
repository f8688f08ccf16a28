package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/repository"
)

func newDelayService(f *fixture) *DelayService {
	return NewDelayService(f.tickets, f.ledgers, f.metrics, f.logger)
}

func TestDelaySweepFlagsOverdueTickets(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	f.seedTicket(t, domain.Ticket{ID: "SBH00001", Status: domain.TicketStatusOpen, Department: "Roads", TargetDate: "2026-02-09"})
	f.seedTicket(t, domain.Ticket{ID: "SBH00002", Status: domain.TicketStatusOpen, TargetDate: "2026-02-10"})
	f.seedTicket(t, domain.Ticket{ID: "SBH00003", Status: domain.TicketStatusClosed, TargetDate: "2026-01-01"})

	if err := newDelayService(f).RunDelaySweep(context.Background(), now); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	overdue, _ := f.tickets.GetByID(context.Background(), "SBH00001")
	if !overdue.DelayFlag {
		t.Fatalf("overdue ticket not flagged")
	}
	if !strings.Contains(overdue.History, "Case Delayed") {
		t.Fatalf("history = %q", overdue.History)
	}

	// Due today is not yet late; closed tickets are never touched.
	dueToday, _ := f.tickets.GetByID(context.Background(), "SBH00002")
	if dueToday.DelayFlag {
		t.Fatalf("ticket due today must not be flagged")
	}
	closed, _ := f.tickets.GetByID(context.Background(), "SBH00003")
	if closed.DelayFlag {
		t.Fatalf("closed ticket must not be flagged")
	}

	entries, _ := f.ledgers.ListUnnotifiedDelayedCases(context.Background())
	if len(entries) != 1 || entries[0].TicketID != "SBH00001" {
		t.Fatalf("ledger entries = %+v", entries)
	}
}

func TestDelaySweepComparesCalendarDays(t *testing.T) {
	f := newFixture(t)
	// Registered one minute before midnight with no target date: late
	// the moment the next day begins.
	f.seedTicket(t, domain.Ticket{
		ID: "SBH00042", Status: domain.TicketStatusOpen,
		RegisteredAt: "2026-02-09 23:59:00",
	})
	now := time.Date(2026, 2, 10, 0, 5, 0, 0, time.Local)

	if err := newDelayService(f).RunDelaySweep(context.Background(), now); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	ticket, _ := f.tickets.GetByID(context.Background(), "SBH00042")
	if !ticket.DelayFlag {
		t.Fatalf("ticket registered yesterday must be flagged today")
	}
}

func TestDelaySweepIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedTicket(t, domain.Ticket{ID: "SBH00001", Status: domain.TicketStatusOpen, TargetDate: "2026-02-01"})
	svc := newDelayService(f)
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)
	ctx := context.Background()

	if err := svc.RunDelaySweep(ctx, now); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if err := svc.RunDelaySweep(ctx, now.Add(24*time.Hour)); err != nil {
		t.Fatalf("second sweep: %v", err)
	}

	ticket, _ := f.tickets.GetByID(ctx, "SBH00001")
	if strings.Count(ticket.History, "Case Delayed") != 1 {
		t.Fatalf("history stacked duplicate delay lines: %q", ticket.History)
	}
	rows, _ := f.store.ReadAll(ctx, repository.SheetDelayedCases)
	if len(rows) != 1 {
		t.Fatalf("delayed-cases ledger rows = %d, want 1", len(rows))
	}
}

func TestDelaySweepSkipsUnparseableDates(t *testing.T) {
	f := newFixture(t)
	f.seedTicket(t, domain.Ticket{
		ID: "SBH00001", Status: domain.TicketStatusOpen,
		RegisteredAt: "not a date",
	})

	if err := newDelayService(f).RunDelaySweep(context.Background(), time.Now()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	ticket, _ := f.tickets.GetByID(context.Background(), "SBH00001")
	if ticket.DelayFlag {
		t.Fatalf("ticket with malformed dates must never be flagged")
	}
}

func TestDelaySweepPrefersTargetDateOverRegistration(t *testing.T) {
	f := newFixture(t)
	// Registered long ago, but the target is still in the future.
	f.seedTicket(t, domain.Ticket{
		ID: "SBH00001", Status: domain.TicketStatusOpen,
		RegisteredAt: "2026-01-01 09:00:00",
		TargetDate:   "2026-03-01",
	})
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	if err := newDelayService(f).RunDelaySweep(context.Background(), now); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	ticket, _ := f.tickets.GetByID(context.Background(), "SBH00001")
	if ticket.DelayFlag {
		t.Fatalf("ticket inside its target window must not be flagged")
	}
}
