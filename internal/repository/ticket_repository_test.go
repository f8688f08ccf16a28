package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/rowstore"
)

func newTicketRepo(t *testing.T) (TicketRepository, *rowstore.MemoryStore) {
	t.Helper()
	store := rowstore.NewMemoryStore(Schemas())
	return NewTicketRepository(store, "SBH"), store
}

func TestNextIDStartsAtOne(t *testing.T) {
	repo, _ := newTicketRepo(t)
	id, err := repo.NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != "SBH00001" {
		t.Fatalf("NextID = %q, want SBH00001", id)
	}
}

func TestNextIDScansHighestSuffix(t *testing.T) {
	repo, store := newTicketRepo(t)
	ctx := context.Background()
	for _, id := range []string{"SBH00001", "SBH00017", "SBH00003", "OTHER9", "SBHxx"} {
		if err := store.AppendRow(ctx, SheetTickets, map[string]string{FieldTicketID: id}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	id, err := repo.NextID(ctx)
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != "SBH00018" {
		t.Fatalf("NextID = %q, want SBH00018", id)
	}
}

func TestNextIDSurvivesDeletion(t *testing.T) {
	repo, store := newTicketRepo(t)
	ctx := context.Background()
	_ = store.AppendRow(ctx, SheetTickets, map[string]string{FieldTicketID: "SBH00005"})
	row, _ := store.FindRow(ctx, SheetTickets, FieldTicketID, "SBH00005")

	// Ids are monotonic even after the highest row disappears, as long
	// as any row documents the watermark. With every row gone the scan
	// restarts, which mirrors a sheet wiped by hand.
	_ = store.AppendRow(ctx, SheetTickets, map[string]string{FieldTicketID: "SBH00002"})
	if err := store.DeleteRow(ctx, SheetTickets, row.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	id, err := repo.NextID(ctx)
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != "SBH00003" {
		t.Fatalf("NextID = %q, want SBH00003", id)
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	repo, _ := newTicketRepo(t)
	ctx := context.Background()
	ticket := &domain.Ticket{
		ID:           "SBH00001",
		Status:       domain.TicketStatusOpen,
		Department:   "Sanitation",
		Description:  "Blocked drain",
		ReportedBy:   "alice",
		RegisteredAt: "2026-01-10 09:00:00",
	}
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "SBH00001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Department != "Sanitation" || got.Status != domain.TicketStatusOpen || got.ReportedBy != "alice" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.RowID == 0 || got.Rev == 0 {
		t.Fatalf("row identity not populated: %+v", got)
	}

	if _, err := repo.GetByID(ctx, "SBH09999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("absent GetByID err = %v, want ErrNotFound", err)
	}
}

func TestUpdateFieldsConflict(t *testing.T) {
	repo, _ := newTicketRepo(t)
	ctx := context.Background()
	_ = repo.Create(ctx, &domain.Ticket{ID: "SBH00001", Status: domain.TicketStatusOpen})

	first, _ := repo.GetByID(ctx, "SBH00001")
	second, _ := repo.GetByID(ctx, "SBH00001")

	if err := repo.UpdateFields(ctx, first, map[string]string{FieldStatus: "Closed"}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	err := repo.UpdateFields(ctx, second, map[string]string{FieldStatus: "Extend"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("stale update err = %v, want ErrConflict", err)
	}

	fresh, _ := repo.GetByID(ctx, "SBH00001")
	if fresh.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %q, want Closed", fresh.Status)
	}
}

func TestAppendHistoryJoinsWithNewlines(t *testing.T) {
	repo, _ := newTicketRepo(t)
	ctx := context.Background()
	_ = repo.Create(ctx, &domain.Ticket{ID: "SBH00001", History: "line one"})
	ticket, _ := repo.GetByID(ctx, "SBH00001")

	if err := repo.AppendHistory(ctx, ticket, "line two"); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if ticket.History != "line one\nline two" {
		t.Fatalf("History = %q", ticket.History)
	}
	fresh, _ := repo.GetByID(ctx, "SBH00001")
	if fresh.History != "line one\nline two" {
		t.Fatalf("persisted History = %q", fresh.History)
	}
}

func TestSetDelayFlag(t *testing.T) {
	repo, _ := newTicketRepo(t)
	ctx := context.Background()
	_ = repo.Create(ctx, &domain.Ticket{ID: "SBH00001"})
	ticket, _ := repo.GetByID(ctx, "SBH00001")

	if err := repo.SetDelayFlag(ctx, ticket, true); err != nil {
		t.Fatalf("SetDelayFlag: %v", err)
	}
	fresh, _ := repo.GetByID(ctx, "SBH00001")
	if !fresh.DelayFlag {
		t.Fatalf("delay flag not set")
	}

	if err := repo.SetDelayFlag(ctx, fresh, false); err != nil {
		t.Fatalf("SetDelayFlag clear: %v", err)
	}
	cleared, _ := repo.GetByID(ctx, "SBH00001")
	if cleared.DelayFlag {
		t.Fatalf("delay flag not cleared")
	}
}
